package model

import "gorm.io/datatypes"

// FormStatus: стадия жизненного цикла сохранённой формы.
type FormStatus string

const (
	FormDraft     FormStatus = "draft"
	FormCompleted FormStatus = "completed"
	FormSynced    FormStatus = "synced"
)

func (s FormStatus) Valid() bool {
	switch s {
	case FormDraft, FormCompleted, FormSynced:
		return true
	}
	return false
}

// SavedForm: последний локальный снимок формы. На одно значение FormID приходится не более одной записи;
// ID назначается при первой записи и не меняется при последующих.
type SavedForm struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	FormID       string         `gorm:"not null;uniqueIndex"`
	Data         datatypes.JSON `gorm:"not null"`
	Timestamp    int64          `gorm:"not null;index"` // unix ms
	Status       FormStatus     `gorm:"not null;index;type:varchar(16)"`
	LastModified int64          `gorm:"not null"` // unix ms
}

func (SavedForm) TableName() string { return "saved_forms" }

// PendingSubmission: запись исходящей очереди: снимок формы, ожидающий доставки на сервер.
type PendingSubmission struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)"`
	FormID     string         `gorm:"not null;index"`
	Data       datatypes.JSON `gorm:"not null"`
	Timestamp  int64          `gorm:"not null;index"` // unix ms
	RetryCount int            `gorm:"not null"`
}

func (PendingSubmission) TableName() string { return "pending_submissions" }

// PhotoAttachment: фото, привязанное к пункту чек-листа.
type PhotoAttachment struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	FormID    string `gorm:"not null;index"`
	AreaID    string `gorm:"not null;index"`
	ItemID    string `gorm:"not null;index"`
	Content   []byte `gorm:"not null"`
	Checksum  []byte // BLAKE2b-256 от Content
	Timestamp int64  `gorm:"not null"` // unix ms
}

func (PhotoAttachment) TableName() string { return "photo_attachments" }

// StorageUsage: оценка занятого и доступного места в байтах. Нули означают «неизвестно».
type StorageUsage struct {
	Used  uint64
	Quota uint64
}
