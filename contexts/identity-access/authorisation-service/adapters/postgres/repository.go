package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mandate/contexts/identity-access/authorisation-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	"mandate/contexts/identity-access/authorisation-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateParty(ctx context.Context, party entities.Party) error {
	row := partyModelFromEntity(party)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidIdentityInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetParty(ctx context.Context, partyID string) (entities.Party, error) {
	var row partyModel
	err := r.db.WithContext(ctx).
		Where("party_id = ?", strings.TrimSpace(partyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Party{}, domainerrors.ErrPartyNotFound
		}
		return entities.Party{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateIdentity(ctx context.Context, identity entities.Identity) error {
	row, err := identityModelFromEntity(identity)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidIdentityInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetIdentityByIDValue(ctx context.Context, idValue string) (entities.Identity, error) {
	var row identityModel
	err := r.db.WithContext(ctx).
		Where("id_value = ?", strings.TrimSpace(idValue)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Identity{}, domainerrors.ErrIdentityNotFound
		}
		return entities.Identity{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListIdentitiesByParty(ctx context.Context, partyID string) ([]entities.Identity, error) {
	var rows []identityModel
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", strings.TrimSpace(partyID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Identity, 0, len(rows))
	for _, row := range rows {
		identity, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, identity)
	}
	return items, nil
}

func (r *Repository) UpdateIdentity(ctx context.Context, identity entities.Identity) error {
	row, err := identityModelFromEntity(identity)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&identityModel{}).
		Where("identity_id = ?", row.IdentityID).
		Updates(map[string]any{
			"party_id":                   row.PartyID,
			"id_value":                   row.IDValue,
			"raw_id_value":               row.RawIDValue,
			"identity_type":              row.IdentityType,
			"agency_scheme":              row.AgencyScheme,
			"agency_token":               row.AgencyToken,
			"link_id_scheme":             row.LinkIDScheme,
			"public_identifier_scheme":   row.PublicIdentifierScheme,
			"default_ind":                row.DefaultInd,
			"invitation_code_status":     row.InvitationCodeStatus,
			"invitation_code_expires_at": row.InvitationCodeExpiresAt,
			"invitation_code_claimed_at": row.InvitationCodeClaimedAt,
			"invitation_code_temp_email": row.InvitationCodeTempEmail,
			"profile":                    row.Profile,
			"updated_at":                 row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIdentityNotFound
	}
	return nil
}

func (r *Repository) CreateRelationship(ctx context.Context, relationship entities.Relationship) error {
	row, err := relationshipModelFromEntity(relationship)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRelationshipInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetRelationship(ctx context.Context, relationshipID string) (entities.Relationship, error) {
	var row relationshipModel
	err := r.db.WithContext(ctx).
		Where("relationship_id = ?", strings.TrimSpace(relationshipID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Relationship{}, domainerrors.ErrRelationshipNotFound
		}
		return entities.Relationship{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdateRelationship(ctx context.Context, relationship entities.Relationship) error {
	row, err := relationshipModelFromEntity(relationship)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&relationshipModel{}).
		Where("relationship_id = ?", row.RelationshipID).
		Updates(map[string]any{
			"type_code":            row.TypeCode,
			"subject_party_id":     row.SubjectPartyID,
			"delegate_party_id":    row.DelegatePartyID,
			"status":               row.Status,
			"initiated_by":         row.InitiatedBy,
			"invitation_id_value":  row.InvitationIDValue,
			"start_at":             row.StartAt,
			"end_at":               row.EndAt,
			"end_event_at":         row.EndEventAt,
			"attributes":           row.Attributes,
			"subject_search_text":  row.SubjectSearchText,
			"delegate_search_text": row.DelegateSearchText,
			"updated_at":           row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRelationshipNotFound
	}
	return nil
}

func (r *Repository) SearchRelationships(ctx context.Context, filter ports.RelationshipFilter, page ports.Page) (ports.RelationshipPage, error) {
	tx := r.db.WithContext(ctx).Model(&relationshipModel{})

	if partyID := strings.TrimSpace(filter.PartyID); partyID != "" {
		tx = tx.Where("subject_party_id = ? OR delegate_party_id = ?", partyID, partyID)
	}
	if strings.TrimSpace(filter.TypeCode) != "" {
		tx = tx.Where("type_code = ?", strings.TrimSpace(filter.TypeCode))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.TypeCategory != "" {
		tx = tx.Where("type_code IN (?)", r.db.
			Model(&relationshipTypeModel{}).
			Select("code").
			Where("category = ?", string(filter.TypeCategory)))
	}
	if filter.PartyType != "" {
		tx = tx.Where(
			"subject_party_id IN (?) OR delegate_party_id IN (?)",
			r.db.Model(&partyModel{}).Select("party_id").Where("party_type = ?", string(filter.PartyType)),
			r.db.Model(&partyModel{}).Select("party_id").Where("party_type = ?", string(filter.PartyType)),
		)
	}
	if strings.TrimSpace(filter.ProfileProvider) != "" {
		provider := strings.TrimSpace(filter.ProfileProvider)
		tx = tx.Where(
			"subject_party_id IN (?) OR delegate_party_id IN (?)",
			r.db.Model(&identityModel{}).Select("party_id").Where("profile ->> 'provider' = ?", provider),
			r.db.Model(&identityModel{}).Select("party_id").Where("profile ->> 'provider' = ?", provider),
		)
	}
	if filter.InDateRangeAsOf != nil {
		asOf := filter.InDateRangeAsOf.UTC()
		tx = tx.Where("start_at <= ? AND (end_at IS NULL OR end_at >= ?)", asOf, asOf)
	}
	if text := strings.ToLower(strings.TrimSpace(filter.Text)); text != "" {
		pattern := "%" + text + "%"
		tx = tx.Where(
			"LOWER(subject_search_text) LIKE ? OR LOWER(delegate_search_text) LIKE ?",
			pattern, pattern,
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ports.RelationshipPage{}, err
	}

	number := page.Number
	if number <= 0 {
		number = 1
	}
	size := page.Size
	if size <= 0 {
		size = 20
	}

	var rows []relationshipModel
	if err := tx.
		Order("created_at ASC, relationship_id ASC").
		Offset((number - 1) * size).
		Limit(size).
		Find(&rows).
		Error; err != nil {
		return ports.RelationshipPage{}, err
	}

	items := make([]entities.Relationship, 0, len(rows))
	for _, row := range rows {
		relationship, err := row.toEntity()
		if err != nil {
			return ports.RelationshipPage{}, err
		}
		items = append(items, relationship)
	}
	return ports.RelationshipPage{
		Items:      items,
		TotalCount: int(total),
		Page:       number,
		PageSize:   size,
	}, nil
}

func (r *Repository) ListAcceptedDelegateIDs(ctx context.Context, subjectPartyID string, asOf time.Time) ([]string, error) {
	return r.listAcceptedPartyIDs(ctx, "subject_party_id", "delegate_party_id", subjectPartyID, asOf)
}

func (r *Repository) ListAcceptedSubjectIDs(ctx context.Context, delegatePartyID string, asOf time.Time) ([]string, error) {
	return r.listAcceptedPartyIDs(ctx, "delegate_party_id", "subject_party_id", delegatePartyID, asOf)
}

func (r *Repository) listAcceptedPartyIDs(
	ctx context.Context,
	whereColumn string,
	selectColumn string,
	partyID string,
	asOf time.Time,
) ([]string, error) {
	timestamp := asOf.UTC()
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&relationshipModel{}).
		Select(selectColumn).
		Where(whereColumn+" = ?", strings.TrimSpace(partyID)).
		Where("status = ?", string(entities.RelationshipAccepted)).
		Where("start_at <= ? AND (end_at IS NULL OR end_at >= ?)", timestamp, timestamp).
		Pluck(selectColumn, &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) HasAcceptedRelationship(ctx context.Context, subjectPartyID string, delegatePartyID string, asOf time.Time) (bool, error) {
	timestamp := asOf.UTC()
	var count int64
	err := r.db.WithContext(ctx).
		Model(&relationshipModel{}).
		Where("subject_party_id = ?", strings.TrimSpace(subjectPartyID)).
		Where("delegate_party_id = ?", strings.TrimSpace(delegatePartyID)).
		Where("status = ?", string(entities.RelationshipAccepted)).
		Where("start_at <= ? AND (end_at IS NULL OR end_at >= ?)", timestamp, timestamp).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) FindRelationshipTypeValidAt(ctx context.Context, code string, asOf time.Time) (entities.RelationshipType, bool, error) {
	item, found, err := r.FindRelationshipType(ctx, code)
	if err != nil || !found {
		return entities.RelationshipType{}, false, err
	}
	if !item.ValidAt(asOf.UTC()) {
		return entities.RelationshipType{}, false, nil
	}
	return item, true, nil
}

func (r *Repository) FindRelationshipType(ctx context.Context, code string) (entities.RelationshipType, bool, error) {
	var row relationshipTypeModel
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RelationshipType{}, false, nil
		}
		return entities.RelationshipType{}, false, err
	}
	item, err := row.toEntity()
	if err != nil {
		return entities.RelationshipType{}, false, err
	}
	return item, true, nil
}

func (r *Repository) FindAttributeNameValidAt(ctx context.Context, code string, asOf time.Time) (entities.AttributeName, bool, error) {
	item, found, err := r.FindAttributeName(ctx, code)
	if err != nil || !found {
		return entities.AttributeName{}, false, err
	}
	if !item.ValidAt(asOf.UTC()) {
		return entities.AttributeName{}, false, nil
	}
	return item, true, nil
}

func (r *Repository) FindAttributeName(ctx context.Context, code string) (entities.AttributeName, bool, error) {
	var row attributeNameModel
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AttributeName{}, false, nil
		}
		return entities.AttributeName{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) NextIdentitySequence(ctx context.Context) (uint64, error) {
	var next uint64
	err := r.db.WithContext(ctx).
		Raw("SELECT nextval('identity_invitation_seq')").
		Scan(&next).
		Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Repository) EnqueueNotification(ctx context.Context, message ports.NotificationMessage) error {
	row := notificationModel{
		NotificationID: strings.TrimSpace(message.NotificationID),
		RelationshipID: strings.TrimSpace(message.RelationshipID),
		Email:          strings.TrimSpace(message.Email),
		InvitationCode: strings.TrimSpace(message.InvitationCode),
		CreatedAt:      message.CreatedAt.UTC(),
		SentAt:         normalizeOptionalTime(message.SentAt),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *Repository) ListPendingNotifications(ctx context.Context, limit int) ([]ports.NotificationMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []notificationModel
	if err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.NotificationMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.NotificationMessage{
			NotificationID: row.NotificationID,
			RelationshipID: row.RelationshipID,
			Email:          row.Email,
			InvitationCode: row.InvitationCode,
			CreatedAt:      row.CreatedAt.UTC(),
			SentAt:         normalizeOptionalTime(row.SentAt),
		})
	}
	return items, nil
}

func (r *Repository) MarkNotificationSent(ctx context.Context, notificationID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("notification_id = ?", strings.TrimSpace(notificationID)).
		Update("sent_at", sentAt.UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRelationshipNotFound
	}
	return nil
}

type partyModel struct {
	PartyID   string     `gorm:"column:party_id;primaryKey"`
	PartyType string     `gorm:"column:party_type"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (partyModel) TableName() string {
	return "parties"
}

func partyModelFromEntity(item entities.Party) partyModel {
	return partyModel{
		PartyID:   strings.TrimSpace(item.PartyID),
		PartyType: string(item.PartyType),
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
		DeletedAt: normalizeOptionalTime(item.DeletedAt),
	}
}

func (m partyModel) toEntity() entities.Party {
	return entities.Party{
		PartyID:   m.PartyID,
		PartyType: entities.PartyType(m.PartyType),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		DeletedAt: normalizeOptionalTime(m.DeletedAt),
	}
}

type identityModel struct {
	IdentityID string `gorm:"column:identity_id;primaryKey"`
	PartyID    string `gorm:"column:party_id;index"`
	IDValue    string `gorm:"column:id_value;uniqueIndex"`
	RawIDValue string `gorm:"column:raw_id_value"`

	IdentityType           string `gorm:"column:identity_type"`
	AgencyScheme           string `gorm:"column:agency_scheme"`
	AgencyToken            string `gorm:"column:agency_token"`
	LinkIDScheme           string `gorm:"column:link_id_scheme"`
	PublicIdentifierScheme string `gorm:"column:public_identifier_scheme"`

	DefaultInd bool `gorm:"column:default_ind"`

	InvitationCodeStatus    string     `gorm:"column:invitation_code_status"`
	InvitationCodeExpiresAt *time.Time `gorm:"column:invitation_code_expires_at"`
	InvitationCodeClaimedAt *time.Time `gorm:"column:invitation_code_claimed_at"`
	InvitationCodeTempEmail string     `gorm:"column:invitation_code_temp_email"`

	Profile []byte `gorm:"column:profile;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (identityModel) TableName() string {
	return "identities"
}

func identityModelFromEntity(item entities.Identity) (identityModel, error) {
	profile, err := json.Marshal(item.Profile)
	if err != nil {
		return identityModel{}, err
	}
	return identityModel{
		IdentityID:              strings.TrimSpace(item.IdentityID),
		PartyID:                 strings.TrimSpace(item.PartyID),
		IDValue:                 strings.TrimSpace(item.IDValue),
		RawIDValue:              strings.TrimSpace(item.RawIDValue),
		IdentityType:            string(item.Type),
		AgencyScheme:            strings.TrimSpace(item.AgencyScheme),
		AgencyToken:             strings.TrimSpace(item.AgencyToken),
		LinkIDScheme:            strings.TrimSpace(item.LinkIDScheme),
		PublicIdentifierScheme:  strings.TrimSpace(item.PublicIdentifierScheme),
		DefaultInd:              item.DefaultInd,
		InvitationCodeStatus:    string(item.InvitationCodeStatus),
		InvitationCodeExpiresAt: normalizeOptionalTime(item.InvitationCodeExpiresAt),
		InvitationCodeClaimedAt: normalizeOptionalTime(item.InvitationCodeClaimedAt),
		InvitationCodeTempEmail: strings.TrimSpace(item.InvitationCodeTempEmail),
		Profile:                 profile,
		CreatedAt:               item.CreatedAt.UTC(),
		UpdatedAt:               item.UpdatedAt.UTC(),
	}, nil
}

func (m identityModel) toEntity() (entities.Identity, error) {
	var profile entities.Profile
	if len(m.Profile) > 0 {
		if err := json.Unmarshal(m.Profile, &profile); err != nil {
			return entities.Identity{}, err
		}
	}
	return entities.Identity{
		IdentityID:              m.IdentityID,
		PartyID:                 m.PartyID,
		IDValue:                 m.IDValue,
		RawIDValue:              m.RawIDValue,
		Type:                    entities.IdentityType(m.IdentityType),
		AgencyScheme:            m.AgencyScheme,
		AgencyToken:             m.AgencyToken,
		LinkIDScheme:            m.LinkIDScheme,
		PublicIdentifierScheme:  m.PublicIdentifierScheme,
		DefaultInd:              m.DefaultInd,
		InvitationCodeStatus:    entities.InvitationCodeStatus(m.InvitationCodeStatus),
		InvitationCodeExpiresAt: normalizeOptionalTime(m.InvitationCodeExpiresAt),
		InvitationCodeClaimedAt: normalizeOptionalTime(m.InvitationCodeClaimedAt),
		InvitationCodeTempEmail: m.InvitationCodeTempEmail,
		Profile:                 profile,
		CreatedAt:               m.CreatedAt.UTC(),
		UpdatedAt:               m.UpdatedAt.UTC(),
	}, nil
}

type relationshipModel struct {
	RelationshipID  string `gorm:"column:relationship_id;primaryKey"`
	TypeCode        string `gorm:"column:type_code"`
	SubjectPartyID  string `gorm:"column:subject_party_id;index"`
	DelegatePartyID string `gorm:"column:delegate_party_id;index"`
	Status          string `gorm:"column:status"`
	InitiatedBy     string `gorm:"column:initiated_by"`

	InvitationIDValue string `gorm:"column:invitation_id_value"`

	StartAt    time.Time  `gorm:"column:start_at"`
	EndAt      *time.Time `gorm:"column:end_at"`
	EndEventAt *time.Time `gorm:"column:end_event_at"`

	Attributes []byte `gorm:"column:attributes;type:jsonb"`

	SubjectSearchText  string `gorm:"column:subject_search_text"`
	DelegateSearchText string `gorm:"column:delegate_search_text"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (relationshipModel) TableName() string {
	return "relationships"
}

func relationshipModelFromEntity(item entities.Relationship) (relationshipModel, error) {
	attributes, err := json.Marshal(item.Attributes)
	if err != nil {
		return relationshipModel{}, err
	}
	return relationshipModel{
		RelationshipID:     strings.TrimSpace(item.RelationshipID),
		TypeCode:           strings.TrimSpace(item.TypeCode),
		SubjectPartyID:     strings.TrimSpace(item.SubjectPartyID),
		DelegatePartyID:    strings.TrimSpace(item.DelegatePartyID),
		Status:             string(item.Status),
		InitiatedBy:        string(item.InitiatedBy),
		InvitationIDValue:  strings.TrimSpace(item.InvitationIDValue),
		StartAt:            item.StartAt.UTC(),
		EndAt:              normalizeOptionalTime(item.EndAt),
		EndEventAt:         normalizeOptionalTime(item.EndEventAt),
		Attributes:         attributes,
		SubjectSearchText:  item.SubjectSearchText,
		DelegateSearchText: item.DelegateSearchText,
		CreatedAt:          item.CreatedAt.UTC(),
		UpdatedAt:          item.UpdatedAt.UTC(),
	}, nil
}

func (m relationshipModel) toEntity() (entities.Relationship, error) {
	var attributes []entities.RelationshipAttribute
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &attributes); err != nil {
			return entities.Relationship{}, err
		}
	}
	return entities.Relationship{
		RelationshipID:     m.RelationshipID,
		TypeCode:           m.TypeCode,
		SubjectPartyID:     m.SubjectPartyID,
		DelegatePartyID:    m.DelegatePartyID,
		Status:             entities.RelationshipStatus(m.Status),
		InitiatedBy:        entities.InitiatedBy(m.InitiatedBy),
		InvitationIDValue:  m.InvitationIDValue,
		StartAt:            m.StartAt.UTC(),
		EndAt:              normalizeOptionalTime(m.EndAt),
		EndEventAt:         normalizeOptionalTime(m.EndEventAt),
		Attributes:         attributes,
		SubjectSearchText:  m.SubjectSearchText,
		DelegateSearchText: m.DelegateSearchText,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

type relationshipTypeModel struct {
	Code     string `gorm:"column:code;primaryKey"`
	Category string `gorm:"column:category"`

	AutoAcceptIfInitiatedFromSubject  bool `gorm:"column:auto_accept_from_subject"`
	AutoAcceptIfInitiatedFromDelegate bool `gorm:"column:auto_accept_from_delegate"`

	MinIdentityStrength   int `gorm:"column:min_identity_strength"`
	MinCredentialStrength int `gorm:"column:min_credential_strength"`

	AttributeCodes []byte `gorm:"column:attribute_codes;type:jsonb"`

	StartAt time.Time  `gorm:"column:start_at"`
	EndAt   *time.Time `gorm:"column:end_at"`
}

func (relationshipTypeModel) TableName() string {
	return "relationship_types"
}

func (m relationshipTypeModel) toEntity() (entities.RelationshipType, error) {
	var codes []string
	if len(m.AttributeCodes) > 0 {
		if err := json.Unmarshal(m.AttributeCodes, &codes); err != nil {
			return entities.RelationshipType{}, err
		}
	}
	return entities.RelationshipType{
		Code:                              m.Code,
		Category:                          entities.RelationshipTypeCategory(m.Category),
		AutoAcceptIfInitiatedFromSubject:  m.AutoAcceptIfInitiatedFromSubject,
		AutoAcceptIfInitiatedFromDelegate: m.AutoAcceptIfInitiatedFromDelegate,
		MinIdentityStrength:               m.MinIdentityStrength,
		MinCredentialStrength:             m.MinCredentialStrength,
		AttributeCodes:                    codes,
		StartAt:                           m.StartAt.UTC(),
		EndAt:                             normalizeOptionalTime(m.EndAt),
	}, nil
}

type attributeNameModel struct {
	Code         string     `gorm:"column:code;primaryKey"`
	Domain       string     `gorm:"column:domain"`
	Classifier   string     `gorm:"column:classifier"`
	Category     string     `gorm:"column:category"`
	DefaultValue string     `gorm:"column:default_value"`
	StartAt      time.Time  `gorm:"column:start_at"`
	EndAt        *time.Time `gorm:"column:end_at"`
}

func (attributeNameModel) TableName() string {
	return "attribute_names"
}

func (m attributeNameModel) toEntity() entities.AttributeName {
	return entities.AttributeName{
		Code:         m.Code,
		Domain:       entities.AttributeDomain(m.Domain),
		Classifier:   entities.AttributeClassifier(m.Classifier),
		Category:     m.Category,
		DefaultValue: m.DefaultValue,
		StartAt:      m.StartAt.UTC(),
		EndAt:        normalizeOptionalTime(m.EndAt),
	}
}

type notificationModel struct {
	NotificationID string     `gorm:"column:notification_id;primaryKey"`
	RelationshipID string     `gorm:"column:relationship_id;index"`
	Email          string     `gorm:"column:email"`
	InvitationCode string     `gorm:"column:invitation_code"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	SentAt         *time.Time `gorm:"column:sent_at"`
}

func (notificationModel) TableName() string {
	return "delegate_notifications"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
