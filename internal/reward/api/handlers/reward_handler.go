package handlers

import (
	"strconv"

	catalog "owatch_service/internal/catalog/domain"
	"owatch_service/internal/reward/app"
	"owatch_service/internal/reward/domain"
	"owatch_service/pkg/logger"
	"owatch_service/pkg/middlewares"
	"owatch_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

// RewardHandler dashboard HTTP handler
type RewardHandler struct {
	Sessions app.SessionManager
	Issuer   string
}

// NewRewardHandler create RewardHandler
func NewRewardHandler(sessions app.SessionManager, issuer string) *RewardHandler {
	return &RewardHandler{Sessions: sessions, Issuer: issuer}
}

type connectReq struct {
	Connector string `json:"connector"`
}

type approveReq struct {
	Address string `json:"address"`
}

type rejectReq struct {
	Reason string `json:"reason"`
}

// session 從 JWT locals 取出 dashboard session
func (h *RewardHandler) session(c *fiber.Ctx) (*app.Session, error) {
	id, _ := c.Locals(middlewares.TokenSessionID).(string)
	return h.Sessions.Get(id)
}

// OpenSession 建立 dashboard session 並回傳 token
func (h *RewardHandler) OpenSession(c *fiber.Ctx) error {
	s, err := h.Sessions.Create()
	if err != nil {
		return sendError(c, err)
	}
	tok, err := token.GenerateJWT(s.ID, string(token.RoleViewer), h.Issuer)
	if err != nil {
		_ = h.Sessions.Close(s.ID)
		return sendError(c, err)
	}
	c.Cookie(&fiber.Cookie{Name: middlewares.CookieToken, Value: tok, HTTPOnly: true})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": s.ID, "token": tok})
}

func (h *RewardHandler) GetSession(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	snap, err := s.Flow.Snapshot(c.UserContext())
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(snap)
}

func (h *RewardHandler) CloseSession(c *fiber.Ctx) error {
	id, _ := c.Locals(middlewares.TokenSessionID).(string)
	if err := h.Sessions.Close(id); err != nil {
		return sendError(c, err)
	}
	c.ClearCookie(middlewares.CookieToken)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RewardHandler) Connectors(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(s.Wallet.Connectors())
}

func (h *RewardHandler) Connect(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	var req connectReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := s.Wallet.Connect(req.Connector); err != nil {
		return sendError(c, err)
	}
	return c.JSON(s.Wallet.Status())
}

func (h *RewardHandler) Approve(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	var req approveReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if _, err := s.Wallet.Approve(req.Address); err != nil {
		return sendError(c, err)
	}
	return c.JSON(s.Wallet.Status())
}

func (h *RewardHandler) Reject(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	var req rejectReq
	// body 可省略
	_ = c.BodyParser(&req)
	if err := s.Wallet.Reject(req.Reason); err != nil {
		return sendError(c, err)
	}
	return c.JSON(s.Wallet.Status())
}

func (h *RewardHandler) Disconnect(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	s.Wallet.Disconnect()
	return c.JSON(s.Wallet.Status())
}

func (h *RewardHandler) DismissNotice(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	s.Wallet.DismissNotice()
	return c.JSON(s.Wallet.Status())
}

// Videos 依 category 與 q 篩選影片
func (h *RewardHandler) Videos(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	category := c.Query("category", catalog.AllCategories)
	return c.JSON(s.Videos.SearchVideos(category, c.Query("q")))
}

func (h *RewardHandler) Categories(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(s.Videos.Categories())
}

func (h *RewardHandler) Play(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}
	if err := s.Flow.Select(id); err != nil {
		return sendError(c, err)
	}
	return h.snapshot(c, s)
}

func (h *RewardHandler) Pause(c *fiber.Ctx) error {
	return h.control(c, func(f app.WatchFlow) error { return f.Pause() })
}

func (h *RewardHandler) Resume(c *fiber.Ctx) error {
	return h.control(c, func(f app.WatchFlow) error { return f.Resume() })
}

func (h *RewardHandler) Reset(c *fiber.Ctx) error {
	return h.control(c, func(f app.WatchFlow) error { return f.Reset() })
}

func (h *RewardHandler) Claim(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	res, err := s.Flow.Claim(c.UserContext())
	if err != nil {
		return sendError(c, err)
	}
	logger.Log.Debug("claim via http", zap.String("session", s.ID), zap.Int("video", res.VideoID))
	return c.JSON(res)
}

func (h *RewardHandler) Balance(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	address, ok := s.Wallet.Address()
	if !ok {
		return sendError(c, domain.ErrWalletNotConnected)
	}
	snap, err := s.Flow.Snapshot(c.UserContext())
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{"address": address, "balance": snap.Balance})
}

func (h *RewardHandler) History(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	records, err := s.History(c.UserContext(), c.QueryInt("limit", defaultHistoryLimit))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(records)
}

func (h *RewardHandler) control(c *fiber.Ctx, op func(app.WatchFlow) error) error {
	s, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	if err := op(s.Flow); err != nil {
		return sendError(c, err)
	}
	return h.snapshot(c, s)
}

func (h *RewardHandler) snapshot(c *fiber.Ctx, s *app.Session) error {
	snap, err := s.Flow.Snapshot(c.UserContext())
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(snap)
}
