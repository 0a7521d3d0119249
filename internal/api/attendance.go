package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
)

type markRequest struct {
	Member    string    `json:"member" binding:"required"`
	Session   string    `json:"session" binding:"required"`
	Status    string    `json:"status" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

func (r markRequest) toMark() attendance.Mark {
	return attendance.Mark{
		MemberID:  r.Member,
		SessionID: r.Session,
		Status:    attendance.Status(r.Status),
		Timestamp: r.Timestamp,
	}
}

type checkOutRequest struct {
	Member    string    `json:"member" binding:"required"`
	Session   string    `json:"session" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

type bulkMarkRequest struct {
	Records []markRequest `json:"attendanceRecords" binding:"required,min=1"`
}

// MarkAttendance creates or updates the record for (member, session).
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.att.Mark(c.Request.Context(), req.toMark())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// MarkCheckOut stamps the check-out time on an existing record.
func (h *Handler) MarkCheckOut(c *gin.Context) {
	var req checkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.att.CheckOut(c.Request.Context(), req.Member, req.Session, req.Timestamp)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// BulkMarkAttendance marks a batch of records in one transaction.
func (h *Handler) BulkMarkAttendance(c *gin.Context) {
	var req bulkMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attendance records array is required"})
		return
	}

	marks := make([]attendance.Mark, 0, len(req.Records))
	for _, r := range req.Records {
		marks = append(marks, r.toMark())
	}

	recs, err := h.att.BulkMark(c.Request.Context(), marks)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, recs)
}

// ListAttendance returns records filtered by ?session= and/or ?member=.
func (h *Handler) ListAttendance(c *gin.Context) {
	recs, err := h.att.List(c.Request.Context(), c.Query("session"), c.Query("member"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

// GetAttendance returns a single record by id.
func (h *Handler) GetAttendance(c *gin.Context) {
	rec, err := h.att.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AttendanceStats returns per-status counts and the attendance rate for
// a session.
func (h *Handler) AttendanceStats(c *gin.Context) {
	stats, err := h.att.Stats(c.Request.Context(), c.Param("session"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteAttendance removes a record by id.
func (h *Handler) DeleteAttendance(c *gin.Context) {
	if err := h.att.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance record deleted"})
}
