package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tradeflowdata/exim_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* PI→PO mapping read-model cache */

func MappingCacheKey(piId int) string {
	return "pipomap:" + fmt.Sprint(piId)
}

// get cached mapping; returns false if absent (or redis unavailable)
func RetrieveMappingCache(piId int, dest interface{}) (bool, error) {
	return config.GetRedisObject(MappingCacheKey(piId), dest)
}

func StoreMappingCache(piId int, obj interface{}) error {
	return config.SetRedisObject(MappingCacheKey(piId), obj, GetCacheLifespan())
}

// drop cached mappings for every PI a movement references
func InvalidateMappingCache(piIds []int) error {
	if len(piIds) == 0 {
		return nil
	}
	keys := make([]string, 0, len(piIds))
	for _, id := range UniqueSlice(piIds) {
		keys = append(keys, MappingCacheKey(id))
	}
	return config.RemoveRedisKey(keys...)
}
