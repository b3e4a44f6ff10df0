package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getMyCoins returns the viewer's balance and recent ledger rows
func (s *Server) getMyCoins(c *gin.Context) {
	userID, _ := GetUserID(c)
	s.writeCoins(c, userID)
}

func (s *Server) writeCoins(c *gin.Context, userID string) {
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return
	}

	wallet, err := s.svc.Wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	txs, err := s.svc.Wallet.Transactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"balance": wallet.Balance, "transactions": txs})
}

func (s *Server) listFavorites(c *gin.Context) {
	userID, _ := GetUserID(c)
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	items, err := s.svc.Library.ListFavorites(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", items)
}

func (s *Server) getFavorite(c *gin.Context) {
	userID, _ := GetUserID(c)
	fav, err := s.svc.Library.IsFavorite(c.Request.Context(), userID, c.Param("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"manga_id": c.Param("manga_id"), "favorite": fav})
}

func (s *Server) addFavorite(c *gin.Context) {
	userID, _ := GetUserID(c)
	if err := s.svc.Library.AddFavorite(c.Request.Context(), userID, c.Param("manga_id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Added to favorites", nil)
}

func (s *Server) removeFavorite(c *gin.Context) {
	userID, _ := GetUserID(c)
	if err := s.svc.Library.RemoveFavorite(c.Request.Context(), userID, c.Param("manga_id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Removed from favorites", nil)
}

func (s *Server) listHistory(c *gin.Context) {
	userID, _ := GetUserID(c)
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	items, err := s.svc.Library.ListHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", items)
}

func (s *Server) deleteHistory(c *gin.Context) {
	userID, _ := GetUserID(c)
	if err := s.svc.Library.DeleteHistory(c.Request.Context(), userID, c.Param("manga_id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "History entry removed", nil)
}

func (s *Server) clearHistory(c *gin.Context) {
	userID, _ := GetUserID(c)
	n, err := s.svc.Library.ClearHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "History cleared", gin.H{"removed": n})
}
