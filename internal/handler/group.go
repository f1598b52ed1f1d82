package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
)

type GroupHandler struct {
	groupService service.IGroupService
}

func NewGroupHandler(groupService service.IGroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

// CreateGroup handles creating a chat group within a project
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, userName := identity(c)
	group, err := h.groupService.CreateGroup(c.Request.Context(), userID, userName, isAdmin(c), &req)
	if err != nil {
		respondError(c, err, "Failed to create group")
		return
	}

	c.JSON(http.StatusCreated, group)
}

// ListGroups lists a project's groups with the caller's membership context
func (h *GroupHandler) ListGroups(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	userID, _ := identity(c)
	groups, err := h.groupService.ListGroups(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err, "Failed to list groups")
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroup returns a single group
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get group")
		return
	}

	c.JSON(http.StatusOK, group)
}

// DeleteGroup removes a group and all of its messages, reactions, and pins
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, _ := identity(c)
	err := h.groupService.DeleteGroup(c.Request.Context(), c.Param("id"), userID, isAdmin(c))
	if err != nil {
		respondError(c, err, "Failed to delete group")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// AddMembers adds users to a group, skipping those already in it
func (h *GroupHandler) AddMembers(c *gin.Context) {
	var req service.AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := identity(c)
	added, err := h.groupService.AddMembers(c.Request.Context(), c.Param("id"), userID, isAdmin(c), req.UserIDs)
	if err != nil {
		respondError(c, err, "Failed to add members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RemoveMembers removes users from a group, skipping those not in it
func (h *GroupHandler) RemoveMembers(c *gin.Context) {
	var req service.RemoveMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := identity(c)
	removed, err := h.groupService.RemoveMembers(c.Request.Context(), c.Param("id"), userID, isAdmin(c), req.UserIDs)
	if err != nil {
		respondError(c, err, "Failed to remove members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// GetMembers lists a group's members
func (h *GroupHandler) GetMembers(c *gin.Context) {
	userID, _ := identity(c)
	members, err := h.groupService.GetMembers(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to list members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// MarkRead advances the caller's read cursor in a group
func (h *GroupHandler) MarkRead(c *gin.Context) {
	seqStr := c.Query("seq_id")
	seqID, err := strconv.ParseInt(seqStr, 10, 64)
	if err != nil || seqID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seq_id"})
		return
	}

	userID, _ := identity(c)
	if err := h.groupService.MarkRead(c.Request.Context(), c.Param("id"), userID, seqID); err != nil {
		respondError(c, err, "Failed to mark read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "read cursor updated"})
}
