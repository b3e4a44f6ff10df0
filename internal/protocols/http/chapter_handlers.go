package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangareader/pkg/models"
)

func (s *Server) listChapters(c *gin.Context) {
	chapters, err := s.svc.Chapters.ListByManga(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", chapters)
}

// readChapter returns the reader payload; pages stay empty while locked
func (s *Server) readChapter(c *gin.Context) {
	viewer, _ := GetViewer(c)
	view, err := s.svc.Chapters.Read(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", view)
}

func (s *Server) getPaywall(c *gin.Context) {
	viewer, _ := GetViewer(c)
	decision, err := s.svc.Paywall.Evaluate(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", decision)
}

// unlockChapter spends coins on the chapter
func (s *Server) unlockChapter(c *gin.Context) {
	viewer, _ := GetViewer(c)
	result, err := s.svc.Paywall.Unlock(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Chapter unlocked"
	switch result.Status {
	case models.UnlockAlreadyOwned:
		message = "Chapter already owned"
	case models.UnlockFree:
		message = "Chapter is free"
	}
	respond(c, http.StatusOK, message, result)
}

func (s *Server) createChapter(c *gin.Context) {
	var req models.CreateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := s.svc.Chapters.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Chapter created successfully", chapter)
}

func (s *Server) updateChapter(c *gin.Context) {
	var req models.UpdateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := s.svc.Chapters.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Chapter updated successfully", chapter)
}

func (s *Server) deleteChapter(c *gin.Context) {
	if err := s.svc.Chapters.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Chapter deleted successfully", nil)
}
