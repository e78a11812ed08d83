package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SergeiKhy/shortlink/internal/metrics"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/shortid"
)

// Ошибки сервиса
var (
	ErrInvalidURL         = errors.New("invalid URL")
	ErrEmptyCustomID      = errors.New("custom id must not be empty")
	ErrInvalidCustomID    = errors.New("invalid custom id")
	ErrDuplicateID        = errors.New("custom id already in use")
	ErrNotFound           = errors.New("url not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageRead        = errors.New("storage read failure")
	ErrStorageWrite       = errors.New("storage write failure")
)

// Константы сервиса
const (
	maxCustomIDLength   = 64
	maxGenerateAttempts = 3
	tracerName          = "github.com/SergeiKhy/shortlink/internal/service"
)

// Имена фиксированных маршрутов и сегменты, которые не доживут до обработчика
var reservedIDs = map[string]struct{}{
	"shorten": {},
	"_health": {},
	"metrics": {},
	".":       {},
	"..":      {},
}

// MappingService интерфейс сервиса идентификаторов
type MappingService interface {
	Create(ctx context.Context, input *models.CreateMappingInput) (*models.Mapping, error)
	Resolve(ctx context.Context, id string) (string, error)
	Ping(ctx context.Context) error
	StoreState() repository.ConnState
}

// Option настройка сервиса
type Option func(*mappingService)

// WithIDGenerator подменяет генератор идентификаторов
func WithIDGenerator(gen func() string) Option {
	return func(s *mappingService) {
		s.generateID = gen
	}
}

type mappingService struct {
	repo       repository.MappingRepository
	cache      repository.CacheRepository
	logger     *zap.Logger
	tracer     trace.Tracer
	generateID func() string
}

// NewMappingService создаёт новый экземпляр сервиса
func NewMappingService(
	repo repository.MappingRepository,
	cache repository.CacheRepository,
	logger *zap.Logger,
	opts ...Option,
) MappingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = repository.NewNopCacheRepository()
	}

	s := &mappingService{
		repo:       repo,
		cache:      cache,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		generateID: shortid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create сохраняет новое соответствие с пользовательским или сгенерированным id
func (s *mappingService) Create(ctx context.Context, input *models.CreateMappingInput) (*models.Mapping, error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.Create")
	defer span.End()

	mapping, err := s.create(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("mapping.id", mapping.ID))
	return mapping, nil
}

func (s *mappingService) create(ctx context.Context, input *models.CreateMappingInput) (*models.Mapping, error) {
	if err := ValidateURL(input.LongURL); err != nil {
		return nil, err
	}
	if input.CustomID != nil {
		if err := ValidateCustomID(*input.CustomID); err != nil {
			return nil, err
		}
	}

	if s.repo.State() != repository.StateConnected {
		return nil, ErrStorageUnavailable
	}

	var (
		mapping *models.Mapping
		err     error
	)
	if input.CustomID != nil {
		mapping, err = s.createCustom(ctx, *input.CustomID, input.LongURL)
	} else {
		mapping, err = s.createGenerated(ctx, input.LongURL)
	}
	if err != nil {
		return nil, err
	}

	// Кэширование: ошибка кэша не прерывает создание
	if err := s.cache.Set(ctx, mapping); err != nil {
		s.logger.Warn("Failed to cache mapping", zap.String("id", mapping.ID), zap.Error(err))
	}

	return mapping, nil
}

func (s *mappingService) createCustom(ctx context.Context, id, longURL string) (*models.Mapping, error) {
	// Предварительная проверка. Гонку между проверкой и вставкой ловит первичный ключ.
	_, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return nil, ErrDuplicateID
	case errors.Is(err, repository.ErrMappingNotFound):
	default:
		return nil, s.storageError(err, "find", ErrStorageRead)
	}

	mapping := &models.Mapping{ID: id, LongURL: longURL}
	if err := s.repo.Insert(ctx, mapping); err != nil {
		if errors.Is(err, repository.ErrIDExists) {
			return nil, ErrDuplicateID
		}
		return nil, s.storageError(err, "insert", ErrStorageWrite)
	}

	metrics.RecordMappingCreated(true)
	return mapping, nil
}

func (s *mappingService) createGenerated(ctx context.Context, longURL string) (*models.Mapping, error) {
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		mapping := &models.Mapping{ID: s.generateID(), LongURL: longURL}

		err := s.repo.Insert(ctx, mapping)
		if err == nil {
			metrics.RecordMappingCreated(false)
			return mapping, nil
		}
		if !errors.Is(err, repository.ErrIDExists) {
			return nil, s.storageError(err, "insert", ErrStorageWrite)
		}

		metrics.RecordIDCollision()
		s.logger.Warn("Generated id collided, regenerating",
			zap.String("id", mapping.ID),
			zap.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("%w: no free id after %d attempts", ErrStorageWrite, maxGenerateAttempts)
}

// Resolve возвращает исходный URL по идентификатору (сначала из кэша, затем из хранилища)
func (s *mappingService) Resolve(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "MappingService.Resolve",
		trace.WithAttributes(attribute.String("mapping.id", id)))
	defer span.End()

	longURL, err := s.resolve(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return longURL, nil
}

func (s *mappingService) resolve(ctx context.Context, id string) (string, error) {
	if s.repo.State() != repository.StateConnected {
		return "", ErrStorageUnavailable
	}
	// Такой id не мог быть сохранён, а хранилище отклонит его как параметр TEXT
	if !storableID(id) {
		return "", ErrNotFound
	}

	// Проверка кэша
	mapping, err := s.cache.Get(ctx, id)
	if err == nil {
		metrics.RecordRedirect()
		return mapping.LongURL, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Cache read failed", zap.String("id", id), zap.Error(err))
	}

	// Запрос из хранилища
	mapping, err = s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMappingNotFound) {
			return "", ErrNotFound
		}
		return "", s.storageError(err, "find", ErrStorageRead)
	}

	if err := s.cache.Set(ctx, mapping); err != nil {
		s.logger.Warn("Failed to cache mapping", zap.String("id", id), zap.Error(err))
	}

	metrics.RecordRedirect()
	return mapping.LongURL, nil
}

// Ping проверяет живость хранилища
func (s *mappingService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return s.storageError(err, "ping", ErrStorageUnavailable)
	}
	return nil
}

func (s *mappingService) StoreState() repository.ConnState {
	return s.repo.State()
}

// storageError переводит ошибку хранилища в ошибку сервиса. Отсутствие подключения
// всегда даёт ErrStorageUnavailable.
func (s *mappingService) storageError(err error, operation string, kind error) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return ErrStorageUnavailable
	}
	metrics.RecordStoreError(operation)
	return fmt.Errorf("%w: %v", kind, err)
}

// ValidateURL проверяет, что URL абсолютный, со схемой http или https и непустым хостом
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) != raw || raw == "" {
		return ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if u.Host == "" || u.Hostname() == "" {
		return ErrInvalidURL
	}
	return nil
}

// storableID сообщает, можно ли передать id в хранилище: валидный UTF-8 без NUL
func storableID(id string) bool {
	return utf8.ValidString(id) && !strings.ContainsRune(id, 0)
}

// ValidateCustomID проверяет, что пользовательский id можно использовать как сегмент пути
func ValidateCustomID(id string) error {
	if id == "" {
		return ErrEmptyCustomID
	}
	if len(id) > maxCustomIDLength || !storableID(id) {
		return ErrInvalidCustomID
	}
	if _, reserved := reservedIDs[id]; reserved {
		return ErrInvalidCustomID
	}
	for _, r := range id {
		if r == '/' || r == '?' || r == '#' || r == '%' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidCustomID
		}
	}
	return nil
}
