package routes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"

	"github.com/rm-hull/heat-metadata-collector/internal"
	"github.com/rm-hull/heat-metadata-collector/internal/models"
)

const MAX_HISTORY = 100

func Latest(repo internal.SnapshotRepository, cache *memoize.Memoizer) func(c *gin.Context) {
	return func(c *gin.Context) {
		name := c.Param("name")

		result, err, _ := cache.Memoize("latest:"+name, func() (any, error) {
			return repo.Latest(name)
		})
		if err != nil {
			log.Printf("error while fetching latest snapshot: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		snapshot, _ := result.(*models.Snapshot)
		if snapshot == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot found for collector " + name})
			return
		}

		c.JSON(http.StatusOK, snapshot)
	}
}

func History(repo internal.SnapshotRepository) func(c *gin.Context) {
	return func(c *gin.Context) {
		limitStr := c.Query("limit")
		limit := 10
		if limitStr != "" {
			l, lerr := strconv.Atoi(limitStr)
			if lerr != nil || l <= 0 || l > MAX_HISTORY {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
				return
			}
			limit = l
		}

		results, err := repo.History(c.Param("name"), limit)
		if err != nil {
			log.Printf("error while fetching snapshot history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		if results == nil {
			results = []models.Snapshot{}
		}
		resp := models.SnapshotResponse{Results: results}
		if len(results) > 0 {
			resp.LastUpdated = &results[0].CollectedOn
		}
		c.JSON(http.StatusOK, resp)
	}
}
