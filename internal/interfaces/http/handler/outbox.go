package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appevent "github.com/retailops/backend/internal/application/event"
)

// OutboxOperations is what the ops server may do to the outbox.
type OutboxOperations interface {
	Stats(ctx context.Context) (*appevent.OutboxStats, error)
	DeadLetters(ctx context.Context, page, pageSize int) (*appevent.DeadLetterPage, error)
	Requeue(ctx context.Context, id uuid.UUID) (*appevent.OutboxEntryView, error)
	RequeueAll(ctx context.Context) (int64, error)
}

type OutboxHandler struct {
	outbox OutboxOperations
}

func NewOutboxHandler(outbox OutboxOperations) *OutboxHandler {
	return &OutboxHandler{outbox: outbox}
}

// RequeueAllResponse reports how many dead entries were requeued
type RequeueAllResponse struct {
	Count int64 `json:"count"`
}

// Stats handles GET /ops/outbox/stats
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stats)
}

// DeadLetters handles GET /ops/outbox/dead?page=&page_size=
func (h *OutboxHandler) DeadLetters(c *gin.Context) {
	var paging [2]int
	for i, q := range []struct {
		name string
		def  int
	}{{"page", 1}, {"page_size", 20}} {
		n, err := queryInt(c, q.name, q.def)
		if err != nil {
			badRequest(c, q.name+" must be an integer")
			return
		}
		paging[i] = n
	}

	page, err := h.outbox.DeadLetters(c.Request.Context(), paging[0], paging[1])
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

// Requeue handles POST /ops/outbox/:id/retry
func (h *OutboxHandler) Requeue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid entry ID")
		return
	}
	view, err := h.outbox.Requeue(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

// RequeueAll handles POST /ops/outbox/dead/retry
func (h *OutboxHandler) RequeueAll(c *gin.Context) {
	n, err := h.outbox.RequeueAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, RequeueAllResponse{Count: n})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	if raw, found := c.GetQuery(key); found && raw != "" {
		return strconv.Atoi(raw)
	}
	return def, nil
}

var _ OutboxOperations = (*appevent.OutboxService)(nil)
