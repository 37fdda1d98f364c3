package shiftplan

import (
	"strconv"
	"time"

	"dienstwunsch-backend/internal/models"
)

// Die Feldnamen sind die Schnittstelle zur Export-Schicht und zur
// Oberfläche, sie dürfen sich nicht ändern.

type NoteResponse struct {
	ID        uint   `json:"id"`
	Content   string `json:"content"`
	UserName  string `json:"user_name"`
	CreatedAt string `json:"created_at"`
}

type RequestResponse struct {
	ID        string         `json:"id"`
	UserName  string         `json:"user_name"`
	Date      string         `json:"date"`
	ShiftType string         `json:"shiftType"`
	Remarks   string         `json:"remarks"`
	Status    string         `json:"status"`
	Confirmed bool           `json:"confirmed"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	Notes     []NoteResponse `json:"notes"`
}

type ReviewEntryResponse struct {
	RequestResponse
	HasModifications  bool    `json:"hasModifications"`
	FirstSubmissionAt *string `json:"firstSubmissionAt"`
}

func NewNoteResponse(n *models.ShiftNote) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Content:   n.Content,
		UserName:  n.User.Name,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

func NewRequestResponse(r *models.ShiftRequest) RequestResponse {
	notes := make([]NoteResponse, 0, len(r.Notes))
	for i := range r.Notes {
		notes = append(notes, NewNoteResponse(&r.Notes[i]))
	}

	return RequestResponse{
		ID:        strconv.FormatUint(uint64(r.ID), 10),
		UserName:  r.User.Name,
		Date:      r.Date.Format(dateLayout),
		ShiftType: r.ShiftType,
		Remarks:   r.Remarks,
		Status:    r.Status,
		Confirmed: r.Confirmed,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
		Notes:     notes,
	}
}

func NewReviewEntryResponse(e *ReviewEntry) ReviewEntryResponse {
	resp := ReviewEntryResponse{
		RequestResponse:  NewRequestResponse(&e.Request),
		HasModifications: e.HasModifications,
	}
	if e.FirstSubmissionAt != nil {
		s := e.FirstSubmissionAt.Format(time.RFC3339)
		resp.FirstSubmissionAt = &s
	}
	return resp
}
