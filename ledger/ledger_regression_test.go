package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/ledger"
	"github.com/tradeflowdata/exim_backend/models"
	"github.com/tradeflowdata/exim_backend/utils"
)

// End-to-end tracking lifecycle against real MySQL/Redis: post inward,
// dispatch, revert, cascade delete, then rebuild and confirm the oracle
// agrees with the incremental state.
func TestTrackingLifecycleRegression(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "exim_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	logger := logrus.New()

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Cold Store A"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name: "Frozen Shrimp 1kg",
		Sku:  "FZ-SHRIMP-1KG",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	qty := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", s, err)
		}
		return v
	}

	// Two inward batches: 100 then 50.
	in1, err := ledger.RecordInward(ctx, db, logger, &models.NewInwardMovement{
		EntryNumber:  "IN-001",
		WarehouseId:  warehouse.ID,
		MovementDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Items: []models.NewInwardMovementItem{
			{ProductId: product.ID, Sku: product.Sku, ProductName: product.Name, Quantity: qty("100")},
		},
	})
	if err != nil {
		t.Fatalf("RecordInward IN-001: %v", err)
	}
	_, err = ledger.RecordInward(ctx, db, logger, &models.NewInwardMovement{
		EntryNumber:  "IN-002",
		WarehouseId:  warehouse.ID,
		MovementDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items: []models.NewInwardMovementItem{
			{ProductId: product.ID, Sku: product.Sku, ProductName: product.Name, Quantity: qty("50")},
		},
	})
	if err != nil {
		t.Fatalf("RecordInward IN-002: %v", err)
	}

	stock, err := models.GetProductStockOnHand(db, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("GetProductStockOnHand: %v", err)
	}
	if !stock.Equal(qty("150")) {
		t.Fatalf("stock after inward: got %s, want 150", stock)
	}

	// Dispatch 120: batch 1 fully consumed, 20 from batch 2.
	dispatchQty := qty("120")
	out, err := ledger.RecordOutward(ctx, db, logger, &models.NewOutwardMovement{
		VoucherNumber: "OUT-001",
		WarehouseId:   warehouse.ID,
		DispatchType:  models.DispatchTypeExportInvoice,
		MovementDate:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Items: []models.NewOutwardMovementItem{
			{ProductId: product.ID, Sku: product.Sku, DispatchQuantity: &dispatchQty},
		},
	})
	if err != nil {
		t.Fatalf("RecordOutward: %v", err)
	}

	records, err := models.GetBatchRecords(db, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("GetBatchRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 batch rows, got %d", len(records))
	}
	if !records[0].RemainingStock.Equal(qty("0")) || !records[1].RemainingStock.Equal(qty("30")) {
		t.Fatalf("FIFO consumption wrong: batch1 rem=%s batch2 rem=%s", records[0].RemainingStock, records[1].RemainingStock)
	}

	// Revert twice: second call must be a no-op.
	_, result, err := ledger.CancelOutward(ctx, db, logger, out.ID, "customs hold")
	if err != nil {
		t.Fatalf("CancelOutward: %v", err)
	}
	if result.AlreadyReverted {
		t.Fatalf("first revert reported already reverted")
	}
	_, result, err = ledger.CancelOutward(ctx, db, logger, out.ID, "duplicate click")
	if err != nil {
		t.Fatalf("CancelOutward (repeat): %v", err)
	}
	if !result.AlreadyReverted {
		t.Fatalf("repeated revert should report already reverted")
	}

	stock, err = models.GetProductStockOnHand(db, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("GetProductStockOnHand after revert: %v", err)
	}
	if !stock.Equal(qty("150")) {
		t.Fatalf("stock after revert: got %s, want 150", stock)
	}

	// Rebuild must agree with the incremental state.
	var rebuilt []*models.TrackingRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		rebuilt, err = ledger.RebuildTracking(tx, logger, product.ID, warehouse.ID)
		return err
	})
	if err != nil {
		t.Fatalf("RebuildTracking: %v", err)
	}
	if len(rebuilt) != 2 {
		t.Fatalf("rebuild produced %d rows, want 2", len(rebuilt))
	}
	total := decimal.Zero
	for _, r := range rebuilt {
		total = total.Add(r.RemainingStock)
	}
	if !total.Equal(qty("150")) {
		t.Fatalf("rebuilt remaining total: got %s, want 150", total)
	}

	// Operator rebuild lock is best-effort and exclusive per scope.
	locker := config.GetRedisLock()
	lock := ledger.ObtainRebuildLock(ctx, locker, logger, product.ID, warehouse.ID)
	if lock == nil {
		t.Fatalf("expected to obtain rebuild lock")
	}
	if second := ledger.ObtainRebuildLock(ctx, locker, logger, product.ID, warehouse.ID); second != nil {
		_ = second.Release(ctx)
		t.Fatalf("second obtain on a held scope should return nil")
	}
	// Rebuild proceeds even while the redis lock is contended; the MySQL
	// named lock is the serialization that matters.
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.RebuildTracking(tx, logger, product.ID, warehouse.ID)
		return err
	})
	if err != nil {
		t.Fatalf("RebuildTracking under held redis lock: %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release rebuild lock: %v", err)
	}

	// Cascade delete of batch 1 removes exactly its tracking row.
	_, deleted, err := ledger.DeleteInward(ctx, db, logger, in1.ID)
	if err != nil {
		t.Fatalf("DeleteInward: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("cascade deleted %d rows, want 1", deleted)
	}
	stock, err = models.GetProductStockOnHand(db, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("GetProductStockOnHand after delete: %v", err)
	}
	if !stock.Equal(qty("50")) {
		t.Fatalf("stock after cascade delete: got %s, want 50", stock)
	}

	// A missing movement maps to the not-found sentinel; a transient DB
	// fault must not.
	if _, err := models.GetOutwardMovementTx(db, 999999); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing movement: got %v, want ErrorRecordNotFound", err)
	}
	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := models.GetOutwardMovementTx(db.WithContext(canceledCtx), out.ID); err == nil || errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("canceled-context fetch: got %v, want a non-not-found error", err)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("exim-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("exim-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=exim_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

// Concurrent postings against one batch row must all land: increments are
// applied in SQL, so remaining == inward - outward holds under any
// interleaving of inward and outward writers.
func TestConcurrentPostingAtomicity(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "exim_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	logger := logrus.New()

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Cold Store B"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name: "Frozen Squid 500g",
		Sku:  "FZ-SQUID-500G",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	qty := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", s, err)
		}
		return v
	}

	seed, err := ledger.RecordInward(ctx, db, logger, &models.NewInwardMovement{
		EntryNumber:  "IN-100",
		WarehouseId:  warehouse.ID,
		MovementDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Items: []models.NewInwardMovementItem{
			{ProductId: product.ID, Sku: product.Sku, ProductName: product.Name, Quantity: qty("1000")},
		},
	})
	if err != nil {
		t.Fatalf("RecordInward seed: %v", err)
	}

	const workers = 4
	const iterations = 5
	inQty := qty("10")
	outQty := qty("5")
	movementDate := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errCh := make(chan error, workers*2)
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				movement := &models.InwardMovement{
					ID:          seed.ID,
					WarehouseId: warehouse.ID,
					Items: []models.InwardMovementItem{
						{InwardMovementId: seed.ID, ProductId: product.ID, Sku: product.Sku, ProductName: product.Name, Quantity: inQty},
					},
				}
				if err := ledger.PostInward(db, logger, movement); err != nil {
					errCh <- fmt.Errorf("PostInward: %w", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				dq := outQty
				movement := &models.OutwardMovement{
					WarehouseId:  warehouse.ID,
					MovementDate: movementDate,
					Items: []models.OutwardMovementItem{
						{ProductId: product.ID, Sku: product.Sku, DispatchQuantity: &dq},
					},
				}
				if err := ledger.PostOutward(db, logger, movement); err != nil {
					errCh <- fmt.Errorf("PostOutward: %w", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent posting: %v", err)
	}

	records, err := models.GetBatchRecords(db, product.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("GetBatchRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single batch row, got %d", len(records))
	}
	r := records[0]

	// 1000 seed + 4 workers * 5 postings * 10.
	if !r.QuantityInward.Equal(qty("1200")) {
		t.Errorf("quantity inward: got %s, want 1200 (lost inward increment)", r.QuantityInward)
	}
	// 4 workers * 5 postings * 5.
	if !r.QuantityOutward.Equal(qty("100")) {
		t.Errorf("quantity outward: got %s, want 100 (lost outward increment)", r.QuantityOutward)
	}
	if !r.RemainingStock.Equal(r.QuantityInward.Sub(r.QuantityOutward)) {
		t.Errorf("invariant broken: remaining %s != inward %s - outward %s",
			r.RemainingStock, r.QuantityInward, r.QuantityOutward)
	}
	if !r.RemainingStock.Equal(qty("1100")) {
		t.Errorf("remaining stock: got %s, want 1100", r.RemainingStock)
	}
}
