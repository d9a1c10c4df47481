package manga

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mangashelf/internal/feed"
	"mangashelf/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *feed.Hub
}

func NewHandler(repo *Repo, hub *feed.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /mangas
	rg.POST("", h.create)       // POST /mangas
	rg.GET("/:id", h.getByID)   // GET /mangas/:id
	rg.PUT("/:id", h.update)    // PUT /mangas/:id
	rg.DELETE("/:id", h.delete) // DELETE /mangas/:id
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) create(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	m, err := h.Repo.Create(c.Request.Context(), payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.publish(feed.MangaCreated, *m)
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	m, err := h.Repo.Update(c.Request.Context(), id, payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.publish(feed.MangaUpdated, *m)
	c.JSON(http.StatusOK, m)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	m, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.publish(feed.MangaDeleted, *m)
	c.JSON(http.StatusOK, m)
}

// publish runs inline so subscribers see events in the order the requests
// changed the collection. Each write is bounded by the hub's write timeout.
func (h *Handler) publish(kind string, m models.Manga) {
	if h.Hub == nil {
		return
	}
	h.Hub.BroadcastJSON(feed.NewEvent(kind, m))
}

// fail maps repository errors onto status codes. Anything that is neither a
// validation error nor a miss is a storage fault.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("storage failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	}
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
