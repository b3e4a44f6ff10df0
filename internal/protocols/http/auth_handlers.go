package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangareader/pkg/models"
)

// register handles user registration
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := s.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", gin.H{"user": user.Profile()})
}

// login handles user authentication
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", resp)
}

// logout revokes the current token
func (s *Server) logout(c *gin.Context) {
	viewer, _ := GetViewer(c)
	if err := s.svc.Auth.Logout(c.Request.Context(), viewer); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Logged out", nil)
}

// getMe returns the signed-in user's profile
func (s *Server) getMe(c *gin.Context) {
	viewer, _ := GetViewer(c)
	user, err := s.svc.Auth.GetUserByID(c.Request.Context(), viewer.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", user.Profile())
}

// updateUserRole allows admins to change user roles
func (s *Server) updateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := s.svc.Auth.UpdateUserRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "User role updated successfully", gin.H{"user": user.Profile()})
}
