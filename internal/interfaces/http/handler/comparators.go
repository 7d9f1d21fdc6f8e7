package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/domain/inventory"
)

// ComparatorRegistry lists the configured warehouse orderings
type ComparatorRegistry interface {
	List() []string
	Default() string
	Get(name string) (inventory.WarehouseComparator, error)
}

// ComparatorHandler shows which fulfillment orderings are available
type ComparatorHandler struct {
	registry ComparatorRegistry
	active   string
}

// NewComparatorHandler creates a handler. active is the comparator the
// selector was configured with.
func NewComparatorHandler(registry ComparatorRegistry, active string) *ComparatorHandler {
	return &ComparatorHandler{registry: registry, active: active}
}

// ComparatorInfo describes one registered comparator
type ComparatorInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
	IsActive    bool   `json:"is_active"`
}

// List returns every registered comparator in name order
func (h *ComparatorHandler) List(c *gin.Context) {
	def := h.registry.Default()
	names := h.registry.List()
	out := make([]ComparatorInfo, 0, len(names))
	for _, name := range names {
		cmp, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, ComparatorInfo{
			Name:        name,
			Description: cmp.Description(),
			IsDefault:   name == def,
			IsActive:    name == h.active,
		})
	}
	ok(c, out)
}
