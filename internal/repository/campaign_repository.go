package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
	"github.com/unclebandit/deskagent/internal/model"
)

type CampaignRepositoryInterface interface {
	Load() ([]*model.Campaign, error)
	Save(campaigns []*model.Campaign) error
	Add(c *model.Campaign) (string, error)
	Update(campaignID string, updates map[string]string) error
	GetByID(campaignID string) (*model.Campaign, error)
	Query(pred Predicate) (iter.Seq[*model.Campaign], error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
}

// Predicate selects campaigns in Query.
type Predicate func(c *model.Campaign) bool

// All matches every campaign.
func All(*model.Campaign) bool { return true }

// Pending matches draft/pending campaigns that have no whydonate_url yet.
func Pending(c *model.Campaign) bool { return c.IsPending() }

func ByStatus(status string) Predicate {
	return func(c *model.Campaign) bool { return c.Status == status }
}

// CampaignRepository persists campaigns in a single CSV file. Every
// load-modify-save cycle runs under mu and an advisory lock on
// <Path>.lock, so goroutines and separate processes (server, worker, CLI)
// sharing the file take turns.
type CampaignRepository struct {
	Path string
	Now  func() time.Time

	mu       sync.Mutex
	fileLock *flock.Flock
	header   []string
}

func NewCampaignRepository(path string) *CampaignRepository {
	return &CampaignRepository{Path: path, Now: time.Now}
}

// NewCampaignID returns a short random token.
func NewCampaignID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ====================== Locking ======================

func (r *CampaignRepository) lock() error {
	r.mu.Lock()
	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.mu.Unlock()
		return appErrors.NewIO("create directory", dir, err)
	}
	if r.fileLock == nil || r.fileLock.Path() != r.Path+".lock" {
		r.fileLock = flock.New(r.Path + ".lock")
	}
	if err := r.fileLock.Lock(); err != nil {
		r.mu.Unlock()
		return appErrors.NewIO("lock", r.fileLock.Path(), err)
	}
	return nil
}

func (r *CampaignRepository) unlock() {
	if err := r.fileLock.Unlock(); err != nil {
		logrus.WithError(err).WithField("path", r.fileLock.Path()).Warn("Failed to release campaign store lock")
	}
	r.mu.Unlock()
}

// ====================== Load / Save ======================

func (r *CampaignRepository) Load() ([]*model.Campaign, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.unlock()
	return r.loadLocked()
}

func (r *CampaignRepository) Save(campaigns []*model.Campaign) error {
	if err := r.lock(); err != nil {
		return err
	}
	defer r.unlock()
	return r.writeLocked(campaigns)
}

func (r *CampaignRepository) loadLocked() ([]*model.Campaign, error) {
	f, err := os.Open(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.WithField("path", r.Path).Info("Campaign store not found, creating empty store")
		r.header = append([]string(nil), model.Columns...)
		return []*model.Campaign{}, r.writeLocked(nil)
	}
	if err != nil {
		return nil, appErrors.NewIO("open", r.Path, err)
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, readErr := reader.ReadAll()
	f.Close()

	if readErr == nil && len(records) == 0 {
		r.header = append([]string(nil), model.Columns...)
		return []*model.Campaign{}, r.writeLocked(nil)
	}

	if readErr == nil {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
		readErr = validateHeader(records[0])
	}
	if readErr != nil {
		return r.recoverCorrupt(readErr)
	}

	header := records[0]
	repaired, rewrite := model.EnsureSchema(header)

	// A row that cannot be read back makes the whole file untrustworthy:
	// it is set aside like a broken header instead of blocking every
	// later operation.
	campaigns := make([]*model.Campaign, 0, len(records)-1)
	seen := make(map[string]bool, len(records)-1)
	for i, row := range records[1:] {
		c, err := model.FromRow(repaired, row)
		if err != nil {
			return r.recoverCorrupt(fmt.Errorf("line %d: %w", i+2, err))
		}
		if seen[c.ID] {
			return r.recoverCorrupt(fmt.Errorf("line %d: %w", i+2,
				appErrors.NewValidation(model.ColCampaignID, "duplicate campaign_id "+c.ID)))
		}
		seen[c.ID] = true
		campaigns = append(campaigns, c)
	}

	r.header = repaired
	if rewrite {
		logrus.WithFields(logrus.Fields{
			"path":    r.Path,
			"columns": len(repaired) - len(header),
		}).Warn("Campaign store schema repaired, rewriting file")
		if err := r.writeLocked(campaigns); err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

func validateHeader(header []string) error {
	if !model.HasAnyRequired(header) {
		return fmt.Errorf("header %q has none of the required columns", strings.Join(header, ","))
	}
	seen := map[string]bool{}
	for _, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			return errors.New("header has a blank column name")
		}
		if seen[col] {
			return fmt.Errorf("header repeats column %q", col)
		}
		seen[col] = true
	}
	return nil
}

// recoverCorrupt moves the unreadable file aside and starts a fresh empty
// store. The returned error tells the caller data was set aside.
func (r *CampaignRepository) recoverCorrupt(cause error) ([]*model.Campaign, error) {
	preserved := r.Path + ".corrupt"
	if _, err := os.Stat(preserved); err == nil {
		preserved = fmt.Sprintf("%s.corrupt.%s", r.Path, r.Now().Format("20060102_150405"))
	}
	if err := os.Rename(r.Path, preserved); err != nil {
		return nil, appErrors.NewIO("preserve corrupt store", r.Path, err)
	}

	corruption := &appErrors.StoreCorruptionError{Path: r.Path, PreservedAs: preserved, Err: cause}
	logrus.WithFields(logrus.Fields{
		"path":      r.Path,
		"preserved": preserved,
		"error":     cause,
	}).Error("Campaign store is corrupt, re-initializing empty store")

	r.header = append([]string(nil), model.Columns...)
	if err := r.writeLocked(nil); err != nil {
		return nil, err
	}
	return []*model.Campaign{}, corruption
}

// writeLocked replaces the store file atomically: rows go to a temp file in
// the same directory which is renamed over the store only after a
// successful flush and sync.
func (r *CampaignRepository) writeLocked(campaigns []*model.Campaign) error {
	header := r.headerFor(campaigns)
	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return appErrors.NewIO("create directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.Path)+".tmp-*")
	if err != nil {
		return appErrors.NewIO("create temp file", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := writeCSV(tmp, header, campaigns); err != nil {
		return appErrors.NewIO("write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return appErrors.NewIO("sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return appErrors.NewIO("close", tmpName, err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		return appErrors.NewIO("replace", r.Path, err)
	}
	committed = true
	r.header = header
	return nil
}

// headerFor extends the known header with extra columns that records
// picked up since the last load.
func (r *CampaignRepository) headerFor(campaigns []*model.Campaign) []string {
	header := r.header
	if len(header) == 0 {
		header = model.Columns
	}
	header = append([]string(nil), header...)
	known := make(map[string]bool, len(header))
	for _, col := range header {
		known[col] = true
	}
	var added []string
	for _, c := range campaigns {
		for col := range c.Extra {
			if !known[col] {
				known[col] = true
				added = append(added, col)
			}
		}
	}
	sort.Strings(added)
	return append(header, added...)
}

func writeCSV(w io.Writer, header []string, campaigns []*model.Campaign) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range campaigns {
		if err := cw.Write(c.ToRow(header)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ====================== Campaign CRUD ======================

// Add stores a new campaign and returns its id. c is updated in place with
// the assigned id, timestamps and defaults.
func (r *CampaignRepository) Add(c *model.Campaign) (string, error) {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Title) == "" {
		return "", appErrors.NewValidation("name", "name or title is required")
	}
	if c.Status != "" && !model.ValidStatus(c.Status) {
		return "", appErrors.NewValidation(model.ColStatus, "unknown status "+c.Status)
	}
	if c.TargetAmount < 0 {
		return "", appErrors.NewValidation(model.ColTargetAmount, "must not be negative")
	}
	for col := range c.Extra {
		if err := model.ValidateColumnName(col); err != nil {
			return "", err
		}
		if model.IsCanonical(col) {
			return "", appErrors.NewValidation(col, "canonical column given as an extra column")
		}
	}

	if err := r.lock(); err != nil {
		return "", err
	}
	defer r.unlock()

	campaigns, err := r.loadLocked()
	if err != nil {
		return "", err
	}

	ids := make(map[string]bool, len(campaigns))
	for _, existing := range campaigns {
		ids[existing.ID] = true
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		for c.ID == "" || ids[c.ID] {
			c.ID = NewCampaignID()
		}
	} else if ids[c.ID] {
		return "", appErrors.NewValidation(model.ColCampaignID, "campaign_id "+c.ID+" already exists")
	}

	now := r.Now()
	c.CreatedDate = now.Format(model.DateLayout)
	c.LastUpdated = now.Format(model.TimestampLayout)
	c.ApplyDefaults()

	if err := r.writeLocked(append(campaigns, c.Clone())); err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"campaign_id": c.ID, "status": c.Status}).Info("Campaign added")
	return c.ID, nil
}

// Update applies updates column by column and stamps last_updated.
// campaign_id and created_date cannot be changed. Status and
// whydonate_url are independent: setting one never changes the other.
// Column names are checked before anything is loaded.
func (r *CampaignRepository) Update(campaignID string, updates map[string]string) error {
	for col := range updates {
		if err := model.ValidateColumnName(col); err != nil {
			return err
		}
	}
	for _, locked := range []string{model.ColCampaignID, model.ColCreatedDate} {
		if v, ok := updates[locked]; ok && (locked != model.ColCampaignID || v != campaignID) {
			return appErrors.NewValidation(locked, "cannot be changed")
		}
	}

	if err := r.lock(); err != nil {
		return err
	}
	defer r.unlock()

	campaigns, err := r.loadLocked()
	if err != nil {
		return err
	}

	idx := -1
	for i, c := range campaigns {
		if c.ID == campaignID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}

	updated := campaigns[idx].Clone()
	for col, value := range updates {
		switch col {
		case model.ColCampaignID, model.ColLastUpdated:
			continue
		case model.ColStatus:
			if value == "" {
				return appErrors.NewValidation(model.ColStatus, "must not be blank")
			}
		}
		if err := updated.Set(col, value); err != nil {
			return err
		}
	}
	updated.Touch(r.Now())
	campaigns[idx] = updated

	if err := r.writeLocked(campaigns); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"campaign_id": campaignID, "fields": len(updates)}).Debug("Campaign updated")
	return nil
}

func (r *CampaignRepository) GetByID(campaignID string) (*model.Campaign, error) {
	campaigns, err := r.Load()
	if err != nil {
		return nil, err
	}
	for _, c := range campaigns {
		if c.ID == campaignID {
			return c, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(campaignID)
}

// Query loads a snapshot and returns a lazy filter over it. Iterating has no
// side effects and never touches the file.
func (r *CampaignRepository) Query(pred Predicate) (iter.Seq[*model.Campaign], error) {
	campaigns, err := r.Load()
	if err != nil {
		return nil, err
	}
	if pred == nil {
		pred = All
	}
	return func(yield func(*model.Campaign) bool) {
		for _, c := range campaigns {
			if pred(c) && !yield(c) {
				return
			}
		}
	}, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	pred := All
	if status != "" {
		pred = ByStatus(status)
	}
	seq, err := r.Query(pred)
	if err != nil {
		return nil, 0, err
	}

	campaigns := []*model.Campaign{}
	total := 0
	for c := range seq {
		if total >= offset && (limit <= 0 || len(campaigns) < limit) {
			campaigns = append(campaigns, c)
		}
		total++
	}
	return campaigns, total, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
