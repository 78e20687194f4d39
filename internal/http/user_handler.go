package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/alert"
	"github.com/lyu3239-oss/heartbeat-app/internal/models"
	"github.com/lyu3239-oss/heartbeat-app/internal/repository"
	"github.com/lyu3239-oss/heartbeat-app/internal/service"
)

// UserHandler 用户 / 打卡 / 按需评估 Handler
type UserHandler struct {
	usersRepo repository.UsersRepository
	alertSvc  *service.AlertService
	logger    *zap.Logger

	// now 可注入，测试用固定时钟
	now func() time.Time
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(usersRepo repository.UsersRepository, alertSvc *service.AlertService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		usersRepo: usersRepo,
		alertSvc:  alertSvc,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterContacts 登记/更新紧急联系人
// 槽位1必须有姓名和电话；槽位2可选且独立。保留既有打卡和报警字段
func (h *UserHandler) RegisterContacts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID            string                   `json:"userId"`
		CallName          *string                  `json:"callName"`
		EmergencyContact  models.EmergencyContact  `json:"emergencyContact"`
		EmergencyContact2 *models.EmergencyContact `json:"emergencyContact2"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.EmergencyContact.Name == "" || req.EmergencyContact.Phone == "" {
		Fail(w, http.StatusBadRequest, "userId, emergencyContact.name and emergencyContact.phone are required")
		return
	}

	user, err := h.usersRepo.GetUser(r.Context(), req.UserID)
	if err != nil {
		if err != repository.ErrUserNotFound {
			h.logger.Error("Failed to load user", zap.Error(err))
			Fail(w, http.StatusInternalServerError, "internal error")
			return
		}
		// 允许先登记联系人再补全账号信息（对齐原有注册流程）
		user = &models.User{UserID: req.UserID, Language: models.LanguageEN}
	}

	user.EmergencyContact = req.EmergencyContact
	if req.EmergencyContact2 != nil {
		user.EmergencyContact2 = *req.EmergencyContact2
	}
	if req.CallName != nil {
		user.CallName = strings.TrimSpace(*req.CallName)
	}
	user.UpdatedAt = h.now()

	if err := h.usersRepo.UpsertUser(r.Context(), user); err != nil {
		h.logger.Error("Failed to upsert user", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	Ok(w, Result{"user": user})
}

// UpdateCallName 更新语音播报用的称呼
func (h *UserHandler) UpdateCallName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		CallName string `json:"callName"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		Fail(w, http.StatusBadRequest, "userId is required")
		return
	}

	callName := strings.TrimSpace(req.CallName)
	if callName == "" {
		Fail(w, http.StatusBadRequest, "callName is required")
		return
	}

	user, err := h.usersRepo.GetUser(r.Context(), req.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			Fail(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	user.CallName = callName
	user.UpdatedAt = h.now()
	if err := h.usersRepo.UpsertUser(r.Context(), user); err != nil {
		h.logger.Error("Failed to upsert user", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	Ok(w, Result{"message": "Call name updated", "user": user})
}

// Checkin 打卡：把 last_checkin_date 推进到今天（只存日期）
func (h *UserHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		Fail(w, http.StatusBadRequest, "userId is required")
		return
	}

	user, err := h.usersRepo.GetUser(r.Context(), req.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			Fail(w, http.StatusNotFound, "User not found. Register first.")
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := h.now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	user.LastCheckinDate = &today
	user.UpdatedAt = now

	if err := h.usersRepo.UpsertUser(r.Context(), user); err != nil {
		h.logger.Error("Failed to upsert user", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("User checked in", zap.String("user_id", user.UserID))
	Ok(w, Result{"message": "Check-in successful", "user": user})
}

// Status 用户状态快照 + 当前是否会触发紧急判定
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request, userID string) {
	user, err := h.usersRepo.GetUser(r.Context(), userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			Fail(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	Ok(w, Result{
		"user":                   user,
		"emergencyShouldTrigger": alert.IsOverdue(user.LastCheckinDate, h.now()),
	})
}

// Evaluate 按需评估：失联用户立即触发联系人通知
func (h *UserHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		Fail(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := h.alertSvc.EvaluateUser(r.Context(), req.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			Fail(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Evaluation failed", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !result.Triggered {
		message := "No emergency needed"
		if result.Throttled {
			message = "Alert throttled by cooldown"
		}
		Ok(w, Result{"triggered": false, "message": message})
		return
	}

	Ok(w, Result{"triggered": true, "results": result.Results})
}

// Health 健康检查
func (h *UserHandler) Health(w http.ResponseWriter, r *http.Request) {
	Ok(w, Result{
		"service": "heartbeat-backend",
		"time":    h.now().Format(time.RFC3339),
	})
}
