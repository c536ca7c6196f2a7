package cache

import (
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
)

// SalesRepCache remembers resolved sales-rep references by employee id.
type SalesRepCache struct {
	entries *lru.Cache
}

// NewSalesRepCache creates a cache holding up to size employees.
func NewSalesRepCache(size int) (*SalesRepCache, error) {
	if size <= 0 {
		size = 256
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &SalesRepCache{entries: entries}, nil
}

func (c *SalesRepCache) Get(id int64) (models.EmployeeRef, bool) {
	value, ok := c.entries.Get(id)
	if !ok {
		return models.EmployeeRef{}, false
	}
	ref, ok := value.(models.EmployeeRef)
	return ref, ok
}

func (c *SalesRepCache) Put(ref models.EmployeeRef) {
	if evicted := c.entries.Add(ref.ID, ref); evicted {
		log.WithField("employee_id", ref.ID).Debug("Sales rep cache evicted oldest entry")
	}
}

// Invalidate drops an employee, typically after its record changed.
func (c *SalesRepCache) Invalidate(id int64) {
	c.entries.Remove(id)
}

func (c *SalesRepCache) Len() int {
	return c.entries.Len()
}
