package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"matsuri-ops/backend/config"
	"matsuri-ops/backend/internal/dto"
	"matsuri-ops/backend/internal/model"
	"matsuri-ops/backend/internal/repository"
	apperrors "matsuri-ops/backend/pkg/errors"
)

// ── 通知模块业务错误 ──

var (
	// 校验错误（按固定顺序短路检查，原因可区分具体缺失项）
	ErrNotificationTypeMissing  = apperrors.Validation("通知类型未指定")
	ErrNotificationMessageEmpty = apperrors.Validation("消息内容为空")
	ErrRecipientRolesMissing    = apperrors.Validation("未指定接收者角色")
	ErrRecipientIDsMissing      = apperrors.Validation("未指定接收者用户")

	ErrSenderNotFound       = apperrors.Authentication("认证错误：发送者不存在或未登录")
	ErrNoSendPermission     = apperrors.Permission("权限错误：无通知发送权限")
	ErrAdminRequired        = apperrors.Permission("权限错误：需要管理员权限")
	ErrNoRecipients         = apperrors.NotFound("未找到接收者")
	ErrNotificationNotFound = apperrors.NotFound("通知不存在")
)

// senderRoles 可发送通知的角色集
// 管理员和操作员始终可发送；各业务线负责人可向任意接收者发送；
// 其余角色一律拒绝。该检查在接收者解析之前执行，
// 被拒绝的请求不会泄露任何角色成员信息。
var senderRoles = map[string]struct{}{
	model.RoleAdmin:            {},
	model.RoleOperator:         {},
	model.RoleManager:          {},
	model.RoleVendorManager:    {},
	model.RoleInventoryManager: {},
	model.RoleScheduleManager:  {},
}

// NotificationPublisher 投递通道入口：持久化成功后的实时扇出
// 由 realtime.Hub（单实例）或 realtime.Broadcaster（多实例经 Redis）实现。
type NotificationPublisher interface {
	Publish(n *model.Notification)
}

// NotificationService 通知业务接口
type NotificationService interface {
	// Send 按角色发送通知。senderID 来自会话上下文。
	Send(ctx context.Context, req *dto.SendNotificationRequest, senderID string) (*dto.SendNotificationResponse, error)
	// SendDirect 指定用户直接发送（仅管理员）
	SendDirect(ctx context.Context, req *dto.SendDirectNotificationRequest, senderID string) (*dto.SendNotificationResponse, error)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkManyRead(ctx context.Context, notificationIDs []string, userID string) error
	IsRead(ctx context.Context, notificationID, userID string) (bool, error)
	// Delete 删除通知（仅管理员，审计场景）
	Delete(ctx context.Context, notificationID, callerID string) error
}

type notificationService struct {
	cfg       *config.NotificationConfig
	repo      *repository.Repository
	publisher NotificationPublisher
	logger    *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(
	cfg *config.NotificationConfig,
	repo *repository.Repository,
	publisher NotificationPublisher,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// ────────────────────── Send ──────────────────────

func (s *notificationService) Send(ctx context.Context, req *dto.SendNotificationRequest, senderID string) (*dto.SendNotificationResponse, error) {
	// 1. 校验（任何副作用之前）
	if err := validateSendRequest(req); err != nil {
		return nil, err
	}

	// 2. 解析发送者身份与角色
	sender, err := s.getSender(ctx, senderID)
	if err != nil {
		return nil, err
	}

	// 3. 发送权限检查 — 必须先于接收者解析，
	//    被拒绝的请求不应得知任何角色成员信息
	if !canSendNotification(sender.Roles) {
		return nil, ErrNoSendPermission
	}

	// 4. 接收者解析（创建时刻快照，后续角色变动不回溯）
	targetUserIDs, err := s.resolveUserIDsByRoles(ctx, req.RecipientRoles)
	if err != nil {
		return nil, err
	}
	if len(targetUserIDs) == 0 {
		return nil, ErrNoRecipients
	}

	// 5-8. 组装并持久化，成功后扇出
	n := s.buildNotification(req.Type, req.Title, req.Message, req.DeepLink, req.Metadata, senderID)
	n.RecipientRoles = model.StringArray(req.RecipientRoles)
	n.TargetUserIDs = model.StringArray(targetUserIDs)

	return s.persistAndPublish(ctx, n)
}

// ────────────────────── SendDirect ──────────────────────

func (s *notificationService) SendDirect(ctx context.Context, req *dto.SendDirectNotificationRequest, senderID string) (*dto.SendNotificationResponse, error) {
	// 校验：直接发送不走角色解析，接收者为显式用户 ID
	if req.Type == "" {
		return nil, ErrNotificationTypeMissing
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrNotificationMessageEmpty
	}
	if len(req.RecipientIDs) == 0 {
		return nil, ErrRecipientIDsMissing
	}

	sender, err := s.getSender(ctx, senderID)
	if err != nil {
		return nil, err
	}

	// 直接发送仅限管理员
	if !sender.Roles.Contains(model.RoleAdmin) {
		return nil, ErrAdminRequired
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["direct"] = true

	n := s.buildNotification(req.Type, req.Title, req.Message, req.DeepLink, metadata, senderID)
	n.RecipientRoles = model.StringArray{}
	n.TargetUserIDs = model.StringArray(req.RecipientIDs)

	return s.persistAndPublish(ctx, n)
}

// ────────────────────── 发送内部步骤 ──────────────────────

// validateSendRequest 按固定顺序短路校验，保证失败原因可区分
func validateSendRequest(req *dto.SendNotificationRequest) error {
	if req.Type == "" {
		return ErrNotificationTypeMissing
	}
	if strings.TrimSpace(req.Message) == "" {
		return ErrNotificationMessageEmpty
	}
	if len(req.RecipientRoles) == 0 {
		return ErrRecipientRolesMissing
	}
	return nil
}

// canSendNotification 发送权限门：任一持有角色在允许集内即放行
func canSendNotification(roles model.StringArray) bool {
	for _, role := range roles {
		if _, ok := senderRoles[role]; ok {
			return true
		}
	}
	return false
}

// getSender 从用户目录解析发送者；目录中不存在视为认证错误
func (s *notificationService) getSender(ctx context.Context, senderID string) (*model.User, error) {
	if senderID == "" {
		return nil, ErrSenderNotFound
	}

	rctx, cancel := context.WithTimeout(ctx, s.cfg.ResolveTimeout)
	defer cancel()

	sender, err := s.repo.User.GetByID(rctx, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSenderNotFound
		}
		return nil, apperrors.TransientStore("用户目录查询失败", err)
	}
	return sender, nil
}

// resolveUserIDsByRoles 按角色解析接收者用户 ID。
// 并集匹配：用户持有任一请求角色即命中；角色 ID 精确比较，不做模式匹配。
// 无人命中返回空集（调度层据此区分 NotFound 与查询失败）。
func (s *notificationService) resolveUserIDsByRoles(ctx context.Context, roles []string) ([]string, error) {
	rctx, cancel := context.WithTimeout(ctx, s.cfg.ResolveTimeout)
	defer cancel()

	users, err := s.repo.User.ListAllWithRoles(rctx)
	if err != nil {
		// 查询失败必须与"无人匹配"区分开，向上传播而非吞掉
		return nil, apperrors.TransientStore("用户目录查询失败", err)
	}

	requested := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		requested[r] = struct{}{}
	}

	var ids []string
	for i := range users {
		for _, held := range users[i].Roles {
			if _, ok := requested[held]; ok {
				ids = append(ids, users[i].UserID)
				break
			}
		}
	}
	return ids, nil
}

// buildNotification 组装通知记录：标题生成、有效期计算、metadata 盖时间戳
func (s *notificationService) buildNotification(typ, title, message, deepLink string, metadata map[string]interface{}, senderID string) *model.Notification {
	now := time.Now()

	if strings.TrimSpace(title) == "" {
		title = model.TitleForType(typ)
	}

	md := make(model.JSONMap, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	md["sent_at"] = now.Format(time.RFC3339)

	expireHours := s.cfg.DefaultExpireHours
	if h := expireHoursFromMetadata(metadata); h > 0 {
		expireHours = h
	}

	n := &model.Notification{
		Type:      typ,
		Title:     title,
		Message:   message,
		SentBy:    senderID,
		Metadata:  md,
		Status:    model.NotificationStatusPending,
		ExpiresAt: now.Add(time.Duration(expireHours) * time.Hour),
	}
	if deepLink != "" {
		n.DeepLink = &deepLink
	}
	return n
}

// expireHoursFromMetadata 读取 metadata.expires_hours 覆盖值
// JSON 反序列化后数字为 float64，兼容 int 以便测试直接构造。
func expireHoursFromMetadata(metadata map[string]interface{}) int {
	if metadata == nil {
		return 0
	}
	switch v := metadata["expires_hours"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// persistAndPublish 持久化后扇出。
// 持久化失败直接报错且不扇出；发布前记录必须已可查询，
// 错过推送的客户端随后轮询即可发现。
func (s *notificationService) persistAndPublish(ctx context.Context, n *model.Notification) (*dto.SendNotificationResponse, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.repo.Notification.Create(sctx, n); err != nil {
		return nil, apperrors.TransientStore("通知持久化失败", err)
	}

	s.logger.Info("通知发送成功",
		zap.String("notification_id", n.NotificationID),
		zap.String("type", n.Type),
		zap.Int("recipient_count", len(n.TargetUserIDs)),
	)

	if s.publisher != nil {
		s.publisher.Publish(n)
	}

	// 状态转移 pending → delivered 为隐式行为，失败不影响发送结果
	uctx, ucancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer ucancel()
	if err := s.repo.Notification.UpdateStatus(uctx, n.NotificationID, model.NotificationStatusDelivered); err != nil {
		s.logger.Warn("通知状态更新失败",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
	}

	return &dto.SendNotificationResponse{NotificationID: n.NotificationID}, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	filter := repository.NotificationListFilter{
		Limit:      req.GetLimit(),
		Offset:     req.Offset,
		Type:       req.Type,
		ActiveOnly: req.ActiveOnly,
	}

	notifications, total, err := s.repo.Notification.ListByUser(sctx, userID, filter)
	if err != nil {
		return nil, 0, apperrors.TransientStore("通知列表查询失败", err)
	}

	// 已读标注：只查本页通知的回执 ID 集
	ids := make([]string, len(notifications))
	for i := range notifications {
		ids[i] = notifications[i].NotificationID
	}
	readIDs, err := s.repo.Notification.ListReadIDs(sctx, ids, userID)
	if err != nil {
		return nil, 0, apperrors.TransientStore("已读回执查询失败", err)
	}
	readSet := make(map[string]struct{}, len(readIDs))
	for _, id := range readIDs {
		readSet[id] = struct{}{}
	}

	result := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		_, isRead := readSet[n.NotificationID]
		result = append(result, toNotificationResponse(n, isRead))
	}
	return result, total, nil
}

func toNotificationResponse(n *model.Notification, isRead bool) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		NotificationID: n.NotificationID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		RecipientRoles: n.RecipientRoles,
		SentBy:         n.SentBy,
		Metadata:       n.Metadata,
		Status:         n.Status,
		IsRead:         isRead,
		CreatedAt:      n.CreatedAt,
		ExpiresAt:      n.ExpiresAt,
	}
	if n.DeepLink != nil {
		resp.DeepLink = *n.DeepLink
	}
	return resp
}

// ────────────────────── 已读状态 ──────────────────────

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	count, err := s.repo.Notification.CountUnread(sctx, userID, time.Now())
	if err != nil {
		return 0, apperrors.TransientStore("未读计数查询失败", err)
	}
	return count, nil
}

// MarkRead 幂等：重复标记是无操作的成功，不是错误。
// 底层唯一约束冲突被 ON CONFLICT DO NOTHING 吸收，这就是并发安全机制。
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.repo.Notification.MarkRead(sctx, notificationID, userID, time.Now()); err != nil {
		return apperrors.TransientStore("已读标记失败", err)
	}
	return nil
}

func (s *notificationService) MarkManyRead(ctx context.Context, notificationIDs []string, userID string) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.repo.Notification.MarkManyRead(sctx, notificationIDs, userID, time.Now()); err != nil {
		return apperrors.TransientStore("批量已读标记失败", err)
	}
	return nil
}

func (s *notificationService) IsRead(ctx context.Context, notificationID, userID string) (bool, error) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	isRead, err := s.repo.Notification.IsRead(sctx, notificationID, userID)
	if err != nil {
		return false, apperrors.TransientStore("已读状态查询失败", err)
	}
	return isRead, nil
}

// ────────────────────── Delete ──────────────────────

func (s *notificationService) Delete(ctx context.Context, notificationID, callerID string) error {
	caller, err := s.getSender(ctx, callerID)
	if err != nil {
		return err
	}
	if !caller.Roles.Contains(model.RoleAdmin) {
		return ErrAdminRequired
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.repo.Notification.GetByID(sctx, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return apperrors.TransientStore("通知查询失败", err)
	}

	if err := s.repo.Notification.Delete(sctx, notificationID); err != nil {
		return apperrors.TransientStore("通知删除失败", err)
	}

	s.logger.Info("通知已删除",
		zap.String("notification_id", notificationID),
		zap.String("deleted_by", callerID),
	)
	return nil
}
