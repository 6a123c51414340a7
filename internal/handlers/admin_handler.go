// File: internal/handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/dtos"
	"github.com/iyunix/go-dreamer/internal/services/admin_services"
)

type AdminOperations interface {
	ListUsers(ctx context.Context, limit, offset int) (*admin_services.UserPage, error)
	SetSubscription(ctx context.Context, userID string, status domain.SubscriptionStatus, expiresAt *time.Time) (*domain.User, error)
}

type AdminHandler struct {
	adminService AdminOperations
	logger       Logger
}

func NewAdminHandler(adminService AdminOperations, logger Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

// ListUsers handles GET /admin/users?limit&offset.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	page, err := h.adminService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) SetSubscription(w http.ResponseWriter, r *http.Request) {
	var req dtos.SetSubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	userID := mux.Vars(r)["id"]
	u, err := h.adminService.SetSubscription(r.Context(), userID, domain.SubscriptionStatus(req.Status), req.ExpiresAt)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.logger.Info("subscription changed by admin", "user_id", userID, "status", req.Status)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": u})
}

// ExportUsersCSV streams every user as CSV, one page at a time.
func (h *AdminHandler) ExportUsersCSV(w http.ResponseWriter, r *http.Request) {
	const pageSize = 200
	first, err := h.adminService.ListUsers(r.Context(), pageSize, 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	filename := fmt.Sprintf("users_export_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	header := []string{"ID", "Email", "Nickname", "Provider", "Subscription", "PremiumExpiresAt", "IsActive", "IsAdmin", "CreatedAt"}
	if err := csvWriter.Write(header); err != nil {
		h.logger.Error("writing CSV header", "error", err)
		return
	}

	written := 0
	page := first
	for {
		for _, u := range page.Users {
			expires := ""
			if u.PremiumExpiresAt != nil {
				expires = u.PremiumExpiresAt.UTC().Format(time.RFC3339)
			}
			record := []string{
				u.ID,
				u.Email,
				u.Nickname,
				string(u.Provider),
				string(u.SubscriptionStatus),
				expires,
				strconv.FormatBool(u.IsActive),
				strconv.FormatBool(u.IsAdmin),
				u.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := csvWriter.Write(record); err != nil {
				h.logger.Error("writing CSV record", "user_id", u.ID, "error", err)
				return
			}
			written++
		}
		if len(page.Users) < pageSize || int64(written) >= page.Total {
			break
		}
		if page, err = h.adminService.ListUsers(r.Context(), pageSize, written); err != nil {
			// headers are already sent
			h.logger.Error("exporting users", "offset", written, "error", err)
			return
		}
	}
	h.logger.Info("exported users to CSV", "count", written)
}
