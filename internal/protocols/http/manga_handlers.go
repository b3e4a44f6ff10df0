package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangareader/pkg/models"
)

// listManga lists the catalog with filters and pagination
func (s *Server) listManga(c *gin.Context) {
	var req models.MangaListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	resp, err := s.svc.Manga.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", resp)
}

// searchManga searches title and author
func (s *Server) searchManga(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	resp, err := s.svc.Manga.Search(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", resp)
}

// getManga returns one manga and counts the view
func (s *Server) getManga(c *gin.Context) {
	manga, err := s.svc.Manga.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", manga)
}

// getRelated returns manga related by genre overlap
func (s *Server) getRelated(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	related, err := s.svc.Recommend.GetRelated(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", related)
}

func (s *Server) likeManga(c *gin.Context) {
	likes, err := s.svc.Manga.Like(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"likes": likes})
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.svc.Manga.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", cats)
}

func (s *Server) listByCategory(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	resp, err := s.svc.Manga.ListByCategory(c.Request.Context(), c.Param("genre"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", resp)
}

// getPopular returns the curated list, or the newest manga when empty
func (s *Server) getPopular(c *gin.Context) {
	list, err := s.svc.Popular.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", list)
}

func (s *Server) createManga(c *gin.Context) {
	var req models.CreateMangaRequest
	if !bindJSON(c, &req) {
		return
	}

	manga, err := s.svc.Manga.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Manga created successfully", manga)
}

func (s *Server) updateManga(c *gin.Context) {
	var req models.UpdateMangaRequest
	if !bindJSON(c, &req) {
		return
	}

	manga, err := s.svc.Manga.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Manga updated successfully", manga)
}

func (s *Server) deleteManga(c *gin.Context) {
	if err := s.svc.Manga.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Manga deleted successfully", nil)
}
