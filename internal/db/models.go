package db

import (
	"encoding/json"
	"time"
)

// Source maps pulse.sources. One row per publisher domain.
type Source struct {
	SourceID  int64     `gorm:"column:source_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Domain    string    `gorm:"column:domain;type:text;not null;unique"`
	Tier      string    `gorm:"column:tier;type:text;not null;default:unknown"`
	Weight    float64   `gorm:"column:weight;type:double precision;not null;default:1.0"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Source) TableName() string { return "pulse.sources" }

// Feed maps pulse.feeds.
type Feed struct {
	FeedID        int64      `gorm:"column:feed_id;primaryKey;autoIncrement"`
	SourceID      *int64     `gorm:"column:source_id;type:bigint"`
	Name          string     `gorm:"column:name;type:text;not null"`
	URL           string     `gorm:"column:url;type:text;not null;unique"`
	FeedType      string     `gorm:"column:feed_type;type:text;not null;default:rss"`
	Tier          string     `gorm:"column:tier;type:text;not null;default:B"`
	IsActive      bool       `gorm:"column:is_active;type:boolean;not null;default:true"`
	FailureCount  int        `gorm:"column:failure_count;type:integer;not null;default:0"`
	LastError     *string    `gorm:"column:last_error;type:text"`
	LastSuccessAt *time.Time `gorm:"column:last_success_at;type:timestamptz"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Feed) TableName() string { return "pulse.feeds" }

// Article maps pulse.articles. URL is the idempotency key for ingest.
type Article struct {
	ArticleID                int64           `gorm:"column:article_id;primaryKey;autoIncrement"`
	SourceID                 *int64          `gorm:"column:source_id;type:bigint"`
	URL                      string          `gorm:"column:url;type:text;not null;unique"`
	Title                    string          `gorm:"column:title;type:text;not null"`
	Summary                  *string         `gorm:"column:summary;type:text"`
	QualityLabel             string          `gorm:"column:quality_label;type:text;not null;default:unchecked"`
	QualityScore             *float64        `gorm:"column:quality_score;type:double precision"`
	QualityReasons           json.RawMessage `gorm:"column:quality_reasons;type:jsonb"`
	SummaryChoiceSource      *string         `gorm:"column:summary_choice_source;type:text"`
	SummaryChoiceMethod      *string         `gorm:"column:summary_choice_method;type:text"`
	SummaryChoiceConfidence  *float64        `gorm:"column:summary_choice_confidence;type:double precision"`
	SummaryChoiceReasons     json.RawMessage `gorm:"column:summary_choice_reasons;type:jsonb"`
	SummaryCandidates        json.RawMessage `gorm:"column:summary_candidates;type:jsonb"`
	SummaryCheckedAt         *time.Time      `gorm:"column:summary_checked_at;type:timestamptz"`
	PublishedAt              *time.Time      `gorm:"column:published_at;type:timestamptz"`
	FetchedAt                time.Time       `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
	CreatedAt                time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt                time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "pulse.articles" }

// Story lifecycle statuses. Pinned stories sort ahead of everything and
// are exempt from similarity demotion; hidden stories never surface.
const (
	StoryStatusActive = "active"
	StoryStatusPinned = "pinned"
	StoryStatusHidden = "hidden"
)

// Story maps pulse.stories.
type Story struct {
	StoryID           int64      `gorm:"column:story_id;primaryKey;autoIncrement"`
	StoryKey          string     `gorm:"column:story_key;type:text;not null"`
	Title             string     `gorm:"column:title;type:text;not null"`
	Summary           *string    `gorm:"column:summary;type:text"`
	EditorTitle       *string    `gorm:"column:editor_title;type:text"`
	EditorSummary     *string    `gorm:"column:editor_summary;type:text"`
	Status            string     `gorm:"column:status;type:text;not null;default:active"`
	PreviewText       *string    `gorm:"column:preview_text;type:text"`
	PreviewType       *string    `gorm:"column:preview_type;type:text"`
	PreviewConfidence *float64   `gorm:"column:preview_confidence;type:double precision"`
	PreviewReason     *string    `gorm:"column:preview_reason;type:text"`
	FirstSeenAt       time.Time  `gorm:"column:first_seen_at;type:timestamptz;not null"`
	LastSeenAt        time.Time  `gorm:"column:last_seen_at;type:timestamptz;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
	DeletedAt         *time.Time `gorm:"column:deleted_at;type:timestamptz"`
}

func (Story) TableName() string { return "pulse.stories" }

// StoryArticle maps pulse.story_articles.
type StoryArticle struct {
	StoryID   int64     `gorm:"column:story_id;type:bigint;primaryKey"`
	ArticleID int64     `gorm:"column:article_id;type:bigint;primaryKey;unique"`
	IsPrimary bool      `gorm:"column:is_primary;type:boolean;not null;default:false"`
	LinkedAt  time.Time `gorm:"column:linked_at;type:timestamptz;not null;default:now()"`
}

func (StoryArticle) TableName() string { return "pulse.story_articles" }

// IngestRun maps pulse.ingest_runs. One row per orchestrator run.
type IngestRun struct {
	IngestRunID  int64           `gorm:"column:ingest_run_id;primaryKey;autoIncrement"`
	StartedAt    time.Time       `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt   *time.Time      `gorm:"column:finished_at;type:timestamptz"`
	Status       string          `gorm:"column:status;type:text;not null;default:running"`
	Counters     json.RawMessage `gorm:"column:counters;type:jsonb"`
	ErrorMessage *string         `gorm:"column:error_message;type:text"`
}

func (IngestRun) TableName() string { return "pulse.ingest_runs" }

func autoMigrateModels() []any {
	return []any{
		&Source{},
		&Feed{},
		&Article{},
		&Story{},
		&StoryArticle{},
		&IngestRun{},
	}
}
