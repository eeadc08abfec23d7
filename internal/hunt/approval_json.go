package hunt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// JSONStore is a file-backed ApprovalStore, written atomically (temp file
// plus rename) so a crash mid-write never corrupts the existing file —
// the same durability shape the diff cache uses for its entries.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore opens (without yet creating) a JSON-backed store at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

type jsonApprovalRecord struct {
	TokenName     string    `json:"token_name"`
	SourceRule    string    `json:"source_rule"`
	ValueHash     string    `json:"value_hash"`
	LastConfirmed time.Time `json:"last_confirmed"`
	ApprovedBy    string    `json:"approved_by"`
	Sensitivity   string    `json:"sensitivity"`
}

func (s *JSONStore) load() (map[string]jsonApprovalRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]jsonApprovalRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var records []jsonApprovalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	out := make(map[string]jsonApprovalRecord, len(records))
	for _, r := range records {
		out[r.TokenName] = r
	}
	return out, nil
}

func (s *JSONStore) save(records map[string]jsonApprovalRecord) error {
	ordered := make([]jsonApprovalRecord, 0, len(records))
	for _, r := range records {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TokenName < ordered[j].TokenName })

	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".approvals-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *JSONStore) Get(tokenName string) (TokenApproval, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return TokenApproval{}, false, err
	}
	r, ok := records[tokenName]
	if !ok {
		return TokenApproval{}, false, nil
	}
	return fromJSONRecord(r), true, nil
}

func (s *JSONStore) Put(approval TokenApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	records[approval.TokenName] = toJSONRecord(approval)
	return s.save(records)
}

func (s *JSONStore) List() ([]TokenApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]TokenApproval, 0, len(records))
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, fromJSONRecord(records[name]))
	}
	return out, nil
}

func toJSONRecord(a TokenApproval) jsonApprovalRecord {
	return jsonApprovalRecord{
		TokenName:     a.TokenName,
		SourceRule:    a.SourceRule,
		ValueHash:     a.ValueHash,
		LastConfirmed: a.LastConfirmed,
		ApprovedBy:    a.ApprovedBy,
		Sensitivity:   string(a.Sensitivity),
	}
}

func fromJSONRecord(r jsonApprovalRecord) TokenApproval {
	return TokenApproval{
		TokenName:     r.TokenName,
		SourceRule:    r.SourceRule,
		ValueHash:     r.ValueHash,
		LastConfirmed: r.LastConfirmed,
		ApprovedBy:    r.ApprovedBy,
		Sensitivity:   Sensitivity(r.Sensitivity),
	}
}
