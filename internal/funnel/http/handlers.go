package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/packsmith-hq/magic-cards-backend/internal/assets"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/service"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
)

// Handler exposes the funnel API.
type Handler struct {
	svc *service.FunnelService
}

// New creates a funnel HTTP handler.
func New(svc *service.FunnelService) *Handler {
	return &Handler{svc: svc}
}

type createProjectReq struct {
	Name string `json:"name"`
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.CreateProject(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) listProjects(c *gin.Context) {
	items, err := h.svc.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) getFunnel(c *gin.Context) {
	view, err := h.svc.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "funnel": view})
}

func (h *Handler) updateProject(c *gin.Context) {
	var patch domain.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) deleteProject(c *gin.Context) {
	if err := h.svc.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) advance(c *gin.Context) {
	view, err := h.svc.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "funnel": view})
}

type revertReq struct {
	Stage string `json:"stage"`
}

func (h *Handler) revert(c *gin.Context) {
	var req revertReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Stage) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	view, err := h.svc.Revert(c.Request.Context(), c.Param("id"), stage.Stage(req.Stage))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "funnel": view})
}

func (h *Handler) createContact(c *gin.Context) {
	var fields domain.ContactPatch
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	contact, err := h.svc.CreateContact(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "contact": contact})
}

func (h *Handler) updateContact(c *gin.Context) {
	var patch domain.ContactPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	contact, err := h.svc.UpdateContact(c.Request.Context(), c.Param("id"), c.Param("contactID"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "contact": contact})
}

func (h *Handler) deleteContact(c *gin.Context) {
	if err := h.svc.DeleteContact(c.Request.Context(), c.Param("id"), c.Param("contactID")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type reviewReq struct {
	Verdict              string  `json:"verdict"`
	Feedback             *string `json:"feedback,omitempty"`
	ConfirmClearFeedback bool    `json:"confirm_clear_feedback,omitempty"`
}

func (h *Handler) setReview(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	contact, err := h.svc.SetContactReview(c.Request.Context(), c.Param("id"), c.Param("contactID"), req.Verdict, req.Feedback, req.ConfirmClearFeedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "contact": contact})
}

func (h *Handler) uploadProjectFiles(c *gin.Context) {
	files, err := readUploadBatch(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	p, err := h.svc.UploadIllustratorFiles(c.Request.Context(), c.Param("id"), files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) removeProjectFile(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid index"})
		return
	}

	p, err := h.svc.RemoveIllustratorFile(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) uploadContactDrafts(c *gin.Context) {
	round, err := strconv.Atoi(c.Param("round"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid round"})
		return
	}

	files, err := readUploadBatch(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	contact, err := h.svc.UploadContactDrafts(c.Request.Context(), c.Param("id"), c.Param("contactID"), round, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "contact": contact})
}

func readUploadBatch(c *gin.Context) ([]service.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("invalid multipart form")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, errors.New("no files submitted")
	}

	out := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("could not read " + fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.New("could not read " + fh.Filename)
		}
		out = append(out, service.UploadFile{Filename: fh.Filename, Data: data})
	}
	return out, nil
}

// respondError maps the funnel error taxonomy onto response statuses. Every
// failure stays scoped to the editor that triggered it; nothing here aborts
// the rest of the page.
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
	case errors.Is(err, domain.ErrContactNotLinked):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": ve.Msg, "field": ve.Field})
	case errors.Is(err, stage.ErrUnknown):
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "invalid stage configuration: " + err.Error()})
	case errors.Is(err, assets.ErrFileTooLarge), errors.Is(err, assets.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
	}
}
