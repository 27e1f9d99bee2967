package http

import "github.com/gin-gonic/gin"

// Register mounts the funnel routes on the given group.
func (h *Handler) Register(rg gin.IRouter) {
	projects := rg.Group("/projects")

	projects.POST("", h.createProject)
	projects.GET("", h.listProjects)
	projects.GET("/:id/funnel", h.getFunnel)
	projects.PATCH("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)

	projects.POST("/:id/advance", h.advance)
	projects.POST("/:id/revert", h.revert)

	projects.POST("/:id/files", h.uploadProjectFiles)
	projects.DELETE("/:id/files/:index", h.removeProjectFile)

	projects.POST("/:id/contacts", h.createContact)
	projects.PATCH("/:id/contacts/:contactID", h.updateContact)
	projects.DELETE("/:id/contacts/:contactID", h.deleteContact)
	projects.PUT("/:id/contacts/:contactID/review", h.setReview)
	projects.POST("/:id/contacts/:contactID/drafts/:round", h.uploadContactDrafts)
}
