package postgresadapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	BackendName = "pg"

	DefaultTxRetries = 16
)

type Repository struct {
	db        *gorm.DB
	clock     ports.Clock
	ids       ports.IDGenerator
	txRetries int
	logger    *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	return &Repository{
		db:        db,
		clock:     SystemClock{},
		ids:       UUIDGenerator{},
		txRetries: DefaultTxRetries,
		logger:    application.ResolveLogger(logger),
	}
}

// WithTxRetries bounds how many times a serialization failure is retried.
func (r *Repository) WithTxRetries(retries int) *Repository {
	if retries >= 0 {
		r.txRetries = retries
	}
	return r
}

func (r *Repository) WithClock(clock ports.Clock) *Repository {
	if clock != nil {
		r.clock = clock
	}
	return r
}

func (r *Repository) Name() string {
	return BackendName
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return classify(err)
	}
	return classify(sqlDB.PingContext(ctx))
}

func (r *Repository) InsertDrop(ctx context.Context, input entities.NewDropInput) (entities.Drop, error) {
	dropID, err := r.ids.NewID(ctx)
	if err != nil {
		return entities.Drop{}, err
	}
	drop, err := entities.NewDrop(dropID, input, r.clock.Now())
	if err != nil {
		return entities.Drop{}, err
	}

	row := dropModelFromEntity(drop)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.Drop{}, r.logError("insert drop failed", "pg_insert_drop_failed", err, "drop_id", dropID)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetDrop(ctx context.Context, dropID string) (entities.Drop, error) {
	if !isUUID(dropID) {
		return entities.Drop{}, domainerrors.ErrDropNotFound
	}
	var row dropModel
	err := r.db.WithContext(ctx).
		Where("id = ?", dropID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Drop{}, domainerrors.ErrDropNotFound
		}
		return entities.Drop{}, r.logError("get drop failed", "pg_get_drop_failed", err, "drop_id", dropID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListDrops(ctx context.Context, filter ports.DropListFilter) ([]entities.Drop, error) {
	tx := r.db.WithContext(ctx).Model(&dropModel{})
	if !filter.MatchesAll() {
		tx = tx.Where("status = ?", filter.Status)
	}

	var rows []dropModel
	if err := tx.Order("created_at DESC").
		Order("id DESC").
		Limit(filter.EffectiveLimit()).
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("list drops failed", "pg_list_drops_failed", err, "status", filter.Status)
	}
	return dropEntities(rows), nil
}

func (r *Repository) UpdateDrop(ctx context.Context, dropID string, patch entities.DropPatch) (entities.Drop, error) {
	if !isUUID(dropID) {
		return entities.Drop{}, domainerrors.ErrDropNotFound
	}

	var updated entities.Drop
	err := r.inSerializableTx(ctx, "update_drop", func(tx *gorm.DB) error {
		var row dropModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", dropID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrDropNotFound
			}
			return err
		}

		next, err := entities.ApplyDropPatch(row.toEntity(), patch)
		if err != nil {
			return err
		}
		nextRow := dropModelFromEntity(next)
		if err := tx.Model(&nextRow).
			Select("title", "lat", "lng", "radius_m", "status", "metadata").
			Updates(&nextRow).
			Error; err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return entities.Drop{}, r.domainOrLogged("update drop failed", "pg_update_drop_failed", err, "drop_id", dropID)
	}
	return updated, nil
}

func (r *Repository) DeleteDrop(ctx context.Context, dropID string) (bool, error) {
	if !isUUID(dropID) {
		return false, nil
	}

	deleted := false
	err := r.inSerializableTx(ctx, "delete_drop", func(tx *gorm.DB) error {
		// Claims first; tables created before the FK existed lack the cascade.
		if err := tx.Where("drop_id = ?", dropID).Delete(&claimModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", dropID).Delete(&dropModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, r.logError("delete drop failed", "pg_delete_drop_failed", err, "drop_id", dropID)
	}
	return deleted, nil
}

func (r *Repository) ExpireDrops(ctx context.Context, now time.Time) ([]entities.Drop, error) {
	var rows []dropModel
	err := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", string(entities.DropStatusActive), now.UTC()).
		Update("status", string(entities.DropStatusExpired)).
		Error
	if err != nil {
		return nil, r.logError("expire drops failed", "pg_expire_drops_failed", err)
	}
	return dropEntities(rows), nil
}

// TryInsertClaimAndIncrement inserts with ON CONFLICT DO NOTHING on
// (drop_id, user_id) and bumps claimed_count in the same serializable
// transaction. A skipped insert means the pair was already claimed.
func (r *Repository) TryInsertClaimAndIncrement(ctx context.Context, input entities.NewClaimInput) (entities.Claim, error) {
	if !isUUID(input.DropID) {
		return entities.Claim{}, domainerrors.ErrDropNotFound
	}
	claimID, err := r.ids.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}

	var created entities.Claim
	err = r.inSerializableTx(ctx, "claim_drop", func(tx *gorm.DB) error {
		claim, err := entities.NewClaim(claimID, input, r.clock.Now())
		if err != nil {
			return err
		}
		row := claimModelFromEntity(claim)
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "drop_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&row)
		if insert.Error != nil {
			if isForeignKeyViolation(insert.Error) {
				return domainerrors.ErrDropNotFound
			}
			if isUniqueViolation(insert.Error) {
				return domainerrors.ErrAlreadyClaimed
			}
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return domainerrors.ErrAlreadyClaimed
		}

		bump := tx.Model(&dropModel{}).
			Where("id = ?", claim.DropID).
			UpdateColumn("claimed_count", gorm.Expr("claimed_count + 1"))
		if bump.Error != nil {
			return bump.Error
		}
		if bump.RowsAffected != 1 {
			return domainerrors.ErrDropNotFound
		}
		created = claim
		return nil
	})
	if err != nil {
		return entities.Claim{}, r.domainOrLogged("claim insert failed", "pg_claim_insert_failed", err,
			"drop_id", input.DropID,
			"user_id", input.UserID,
		)
	}
	return created, nil
}

func (r *Repository) ListClaimsByDrop(ctx context.Context, dropID string) ([]entities.Claim, error) {
	if !isUUID(dropID) {
		return []entities.Claim{}, nil
	}
	var rows []claimModel
	if err := r.db.WithContext(ctx).
		Where("drop_id = ?", dropID).
		Order("claimed_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("list drop claims failed", "pg_list_drop_claims_failed", err, "drop_id", dropID)
	}
	return claimEntities(rows), nil
}

func (r *Repository) ListRewardsByUser(ctx context.Context, userID string, limit int) ([]entities.Reward, error) {
	if limit <= 0 {
		limit = ports.DefaultRewardListLimit
	}

	var claimRows []claimModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("claimed_at DESC").
		Limit(limit).
		Find(&claimRows).
		Error; err != nil {
		return nil, r.logError("list user claims failed", "pg_list_user_claims_failed", err, "user_id", userID)
	}
	if len(claimRows) == 0 {
		return []entities.Reward{}, nil
	}

	dropIDs := make([]string, 0, len(claimRows))
	seen := make(map[string]struct{}, len(claimRows))
	for _, row := range claimRows {
		if _, ok := seen[row.DropID]; ok {
			continue
		}
		seen[row.DropID] = struct{}{}
		dropIDs = append(dropIDs, row.DropID)
	}

	var dropRows []dropModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", dropIDs).
		Find(&dropRows).
		Error; err != nil {
		return nil, r.logError("load reward drops failed", "pg_load_reward_drops_failed", err, "user_id", userID)
	}
	dropsByID := make(map[string]entities.Drop, len(dropRows))
	for _, row := range dropRows {
		dropsByID[row.ID] = row.toEntity()
	}

	rewards := make([]entities.Reward, 0, len(claimRows))
	for _, row := range claimRows {
		reward := entities.Reward{Claim: row.toEntity()}
		if drop, ok := dropsByID[row.DropID]; ok {
			snapshot := drop.Clone()
			reward.Drop = &snapshot
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

func (r *Repository) Stats(ctx context.Context) (entities.Stats, error) {
	var drops, claims int64
	if err := r.db.WithContext(ctx).Model(&dropModel{}).Count(&drops).Error; err != nil {
		return entities.Stats{}, r.logError("count drops failed", "pg_count_drops_failed", err)
	}
	if err := r.db.WithContext(ctx).Model(&claimModel{}).Count(&claims).Error; err != nil {
		return entities.Stats{}, r.logError("count claims failed", "pg_count_claims_failed", err)
	}

	stats := entities.Stats{TotalDrops: int(drops), TotalClaims: int(claims)}
	var last claimModel
	err := r.db.WithContext(ctx).Order("claimed_at DESC").First(&last).Error
	switch {
	case err == nil:
		claim := last.toEntity()
		stats.LastClaim = &claim
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return entities.Stats{}, r.logError("load last claim failed", "pg_last_claim_failed", err)
	}
	return stats, nil
}

// inSerializableTx runs fn at SERIALIZABLE isolation and retries it when
// Postgres aborts the transaction with a serialization or deadlock failure.
func (r *Repository) inSerializableTx(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= r.txRetries; attempt++ {
		err = r.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if !isSerializationFailure(err) {
			return err
		}
		r.logger.Debug("serializable transaction conflict",
			"event", "pg_tx_conflict_retry",
			"module", "geo-rewards/drop-service",
			"layer", "adapter",
			"operation", operation,
			"attempt", attempt+1,
		)
		if waitErr := backoff(ctx, attempt); waitErr != nil {
			return waitErr
		}
	}
	return errors.Join(domainerrors.ErrBackendUnavailable, err)
}

func (r *Repository) domainOrLogged(message string, event string, err error, attrs ...any) error {
	if isDomainError(err) {
		return err
	}
	return r.logError(message, event, err, attrs...)
}

func (r *Repository) logError(message string, event string, err error, attrs ...any) error {
	classified := classify(err)
	fields := []any{
		"event", event,
		"module", "geo-rewards/drop-service",
		"layer", "adapter",
		"error", err.Error(),
	}
	fields = append(fields, attrs...)
	r.logger.Error(message, fields...)
	return classified
}

func isUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
