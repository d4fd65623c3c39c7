package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"QAChecklist/internal/model"
	"QAChecklist/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrMissingFields: нет formId, data или timestamp.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidFormData: в data нет inspectorInfo или массива areas.
	ErrInvalidFormData = errors.New("invalid form data structure")
)

// SubmissionService принимает формы инспекций от клиентов.
type SubmissionService struct {
	repo   repo.SubmissionRepository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewSubmissionService(r repo.SubmissionRepository, logger *zap.SugaredLogger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SubmissionService{repo: r, logger: logger, now: time.Now}
}

// SubmitInput: снимок формы от клиента.
type SubmitInput struct {
	FormID    string
	Data      json.RawMessage
	Timestamp int64 // мс, время снимка на клиенте
}

// Receipt: подтверждение приёма.
type Receipt struct {
	FormID       string
	SubmissionID string
	ReceivedAt   time.Time
	Duplicate    bool // снимок уже был принят раньше
}

// formEnvelope: поля data, которые сервер проверяет.
type formEnvelope struct {
	InspectorInfo *model.InspectorInfo   `json:"inspectorInfo"`
	Areas         []model.InspectionArea `json:"areas"`
	Wins          []model.WinsEntry      `json:"wins"`
}

// Submit проверяет и сохраняет снимок. Повторная доставка того же снимка
// возвращает исходный submissionId.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (Receipt, error) {
	if in.FormID == "" || in.Timestamp == 0 || isEmptyJSON(in.Data) {
		return Receipt{}, ErrMissingFields
	}
	var env formEnvelope
	if err := json.Unmarshal(in.Data, &env); err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrInvalidFormData, err)
	}
	if env.InspectorInfo == nil || env.Areas == nil {
		return Receipt{}, ErrInvalidFormData
	}

	sub := &model.Submission{
		ID:              uuid.NewString(),
		FormID:          in.FormID,
		ClientTimestamp: in.Timestamp,
		InspectorName:   env.InspectorInfo.InspectorName,
		FacilityName:    env.InspectorInfo.FacilityName,
		Data:            datatypes.JSON(in.Data),
		ReceivedAt:      s.now().UTC(),
	}
	stored, created, err := s.repo.CreateIfAbsent(ctx, sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("store submission %s: %w", in.FormID, err)
	}

	s.logger.Infow("QA form submitted",
		"form_id", in.FormID,
		"submission_id", stored.ID,
		"facility", env.InspectorInfo.FacilityName,
		"inspector", env.InspectorInfo.InspectorName,
		"client_time", time.UnixMilli(in.Timestamp).UTC().Format(time.RFC3339),
		"areas", len(env.Areas),
		"wins", len(env.Wins),
		"duplicate", !created,
	)
	return Receipt{
		FormID:       in.FormID,
		SubmissionID: stored.ID,
		ReceivedAt:   s.now().UTC(),
		Duplicate:    !created,
	}, nil
}

// Stored возвращает число принятых снимков форм.
func (s *SubmissionService) Stored(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func isEmptyJSON(b json.RawMessage) bool {
	switch string(b) {
	case "", "null", `""`, "false", "0":
		return true
	}
	return false
}
