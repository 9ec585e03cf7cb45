package tracker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/jobtrail/internal/activity"
	"github.com/starford/jobtrail/internal/apperr"
	"github.com/starford/jobtrail/internal/checksum"
	"github.com/starford/jobtrail/internal/models"
	"github.com/starford/jobtrail/internal/parser"
)

// CollectionView is the content of one collection file.
type CollectionView struct {
	Name     models.Collection `json:"name"`
	Path     string            `json:"path"`
	Checksum string            `json:"checksum"`
	Records  []models.Record   `json:"records"`
}

// RecordResult is returned by record writes. Checksum is the checksum of
// the collection file after the write.
type RecordResult struct {
	Record   models.Record `json:"record"`
	Checksum string        `json:"checksum"`
}

// ValidateRecord checks that rec names a company and carries at least one
// usable date for collection c.
func ValidateRecord(c models.Collection, rec models.Record) error {
	company := rec.String("company")
	if company == "" {
		company = rec.String("companyName")
	}
	fields := activity.DateFields(c)
	date := ""
	for _, f := range fields {
		if d, ok := activity.NormalizeDate(rec[f]); ok {
			date = d
			break
		}
	}
	err := validation.Errors{
		"company": validation.Validate(company, validation.Required),
		"date": validation.Validate(date,
			validation.Required.Error(fmt.Sprintf("one of %v must be a valid date", fields))),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidRecord, err)
	}
	return nil
}

// Collection returns the records stored in c. A collection without a file
// is empty and has an empty checksum.
func (s *Service) Collection(_ context.Context, c models.Collection) (*CollectionView, error) {
	if _, ok := models.ParseCollection(string(c)); !ok {
		return nil, apperr.ErrInvalidCollection
	}
	return s.load(c)
}

// AddRecord appends rec to c, assigning an id when it has none. ifMatch,
// when non-empty, must equal the current collection checksum.
func (s *Service) AddRecord(_ context.Context, c models.Collection, rec models.Record, ifMatch string) (*RecordResult, error) {
	if _, ok := models.ParseCollection(string(c)); !ok {
		return nil, apperr.ErrInvalidCollection
	}
	if err := ValidateRecord(c, rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.load(c)
	if err != nil {
		return nil, err
	}
	if err := checkMatch(view, ifMatch); err != nil {
		return nil, err
	}

	out := cloneRecord(rec)
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		out["id"] = id
	}
	if indexOf(view.Records, id) >= 0 {
		return nil, fmt.Errorf("tracker: record %s: %w", id, apperr.ErrAlreadyExists)
	}

	sum, err := s.save(view, append(view.Records, out))
	if err != nil {
		return nil, err
	}
	return &RecordResult{Record: out, Checksum: sum}, nil
}

// UpdateRecord replaces the record with the given id. The stored id is
// kept regardless of what rec carries.
func (s *Service) UpdateRecord(_ context.Context, c models.Collection, id string, rec models.Record, ifMatch string) (*RecordResult, error) {
	if _, ok := models.ParseCollection(string(c)); !ok {
		return nil, apperr.ErrInvalidCollection
	}
	if err := ValidateRecord(c, rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.load(c)
	if err != nil {
		return nil, err
	}
	if err := checkMatch(view, ifMatch); err != nil {
		return nil, err
	}
	i := indexOf(view.Records, id)
	if i < 0 {
		return nil, fmt.Errorf("tracker: record %s: %w", id, apperr.ErrNotFound)
	}
	out := cloneRecord(rec)
	out["id"] = view.Records[i]["id"]
	view.Records[i] = out

	sum, err := s.save(view, view.Records)
	if err != nil {
		return nil, err
	}
	return &RecordResult{Record: out, Checksum: sum}, nil
}

// DeleteRecord removes the record with the given id and returns the new
// collection checksum.
func (s *Service) DeleteRecord(_ context.Context, c models.Collection, id, ifMatch string) (string, error) {
	if _, ok := models.ParseCollection(string(c)); !ok {
		return "", apperr.ErrInvalidCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.load(c)
	if err != nil {
		return "", err
	}
	if err := checkMatch(view, ifMatch); err != nil {
		return "", err
	}
	i := indexOf(view.Records, id)
	if i < 0 {
		return "", fmt.Errorf("tracker: record %s: %w", id, apperr.ErrNotFound)
	}
	records := append(view.Records[:i:i], view.Records[i+1:]...)
	return s.save(view, records)
}

// DeleteCollection removes the file backing c and reindexes.
func (s *Service) DeleteCollection(_ context.Context, c models.Collection, ifMatch string) error {
	if _, ok := models.ParseCollection(string(c)); !ok {
		return apperr.ErrInvalidCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Malformed files can be deleted too, so the content is not parsed.
	f, err := s.store.Read(c)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tracker: collection %s: %w", c, apperr.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(f.Data) {
		return apperr.ErrConflict
	}
	if err := s.store.Delete(c); err != nil {
		return err
	}
	if s.db != nil {
		if _, err := s.Reindex(context.Background()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) load(c models.Collection) (*CollectionView, error) {
	f, err := s.store.Read(c)
	if errors.Is(err, fs.ErrNotExist) {
		return &CollectionView{Name: c, Path: string(c) + ".json", Records: []models.Record{}}, nil
	}
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(f.Path, f.Data)
	if err != nil {
		return nil, err
	}
	return &CollectionView{
		Name:     c,
		Path:     f.Path,
		Checksum: checksum.Sum(f.Data),
		Records:  res.Records,
	}, nil
}

// save encodes records in the collection's format, writes them and
// reindexes.
func (s *Service) save(view *CollectionView, records []models.Record) (string, error) {
	data, err := parser.Encode(view.Path, records)
	if err != nil {
		return "", err
	}
	if err := s.store.Write(view.Name, data); err != nil {
		return "", err
	}
	if s.db != nil {
		if _, err := s.Reindex(context.Background()); err != nil {
			return "", err
		}
	}
	return checksum.Sum(data), nil
}

func checkMatch(view *CollectionView, ifMatch string) error {
	if ifMatch != "" && ifMatch != view.Checksum {
		return apperr.ErrConflict
	}
	return nil
}

func indexOf(records []models.Record, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func cloneRecord(rec models.Record) models.Record {
	out := make(models.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
