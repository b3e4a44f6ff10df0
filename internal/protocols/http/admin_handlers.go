package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mangareader/internal/media"
	"mangareader/pkg/models"
)

const maxUploadFiles = 200

// uploadImages pushes multipart "files" to the CDN and returns their URLs
// in the order they were sent
func (s *Server) uploadImages(c *gin.Context) {
	if s.svc.Uploader == nil {
		respondError(c, models.ErrServiceUnavailable)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "expected multipart form with files")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, "no files provided")
		return
	}
	if len(headers) > maxUploadFiles {
		badRequest(c, fmt.Sprintf("at most %d files per upload", maxUploadFiles))
		return
	}

	maxBytes := s.config.CDN.MaxFileBytes
	files := make([]media.File, 0, len(headers))
	for _, h := range headers {
		contentType := h.Header.Get("Content-Type")
		if !media.IsImage(contentType) {
			badRequest(c, fmt.Sprintf("%s is not an image", h.Filename))
			return
		}
		if maxBytes > 0 && h.Size > maxBytes {
			badRequest(c, fmt.Sprintf("%s exceeds %d bytes", h.Filename, maxBytes))
			return
		}

		f, err := h.Open()
		if err != nil {
			badRequest(c, "unreadable file "+h.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			badRequest(c, "unreadable file "+h.Filename)
			return
		}
		files = append(files, media.File{Name: h.Filename, ContentType: contentType, Data: data})
	}

	urls, err := s.svc.Uploader.Upload(c.Request.Context(), files)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Images uploaded", gin.H{"urls": urls})
}

func (s *Server) getPopularEntries(c *gin.Context) {
	entries, err := s.svc.Popular.Entries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", entries)
}

func (s *Server) replacePopular(c *gin.Context) {
	var req models.ReplacePopularRequest
	if !bindJSON(c, &req) {
		return
	}
	entries, err := s.svc.Popular.Replace(c.Request.Context(), req.MangaIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Popular list replaced", entries)
}

func (s *Server) addPopular(c *gin.Context) {
	entries, err := s.svc.Popular.Add(c.Request.Context(), c.Param("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Added to popular list", entries)
}

func (s *Server) removePopular(c *gin.Context) {
	entries, err := s.svc.Popular.Remove(c.Request.Context(), c.Param("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Removed from popular list", entries)
}

func (s *Server) movePopular(c *gin.Context) {
	var req models.MovePopularRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.From == nil || req.To == nil {
		badRequest(c, "from and to are required")
		return
	}
	entries, err := s.svc.Popular.Move(c.Request.Context(), *req.From, *req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Popular list reordered", entries)
}

func (s *Server) getUserCoins(c *gin.Context) {
	s.writeCoins(c, c.Param("id"))
}

func (s *Server) grantCoins(c *gin.Context) {
	var req models.GrantCoinsRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := GetViewer(c)
	wallet, err := s.svc.Wallet.Grant(c.Request.Context(), actor, c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coins granted", wallet)
}
