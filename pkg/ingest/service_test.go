package ingest_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/internal/types"
	"github.com/xhad/brikmate/pkg/extractor"
	"github.com/xhad/brikmate/pkg/ingest"
	"github.com/xhad/brikmate/pkg/leasedb"
	"github.com/xhad/brikmate/pkg/processor"
)

const sampleLease = "Tenant: Jane Doe, 555-1234.\n\nLandlord: Acme Corp, acme@example.com."

var (
	tenantPattern   = regexp.MustCompile(`Tenant: ([^,]+), ([^\s]+)\.`)
	landlordPattern = regexp.MustCompile(`Landlord: ([^,]+), ([^\s]+)\.`)
)

// keywordIndex answers the party questions by pattern matching over the
// indexed chunks of a collection and says "Not specified" to the rest.
type keywordIndex struct {
	mu        sync.Mutex
	chunks    map[string][]models.Chunk
	indexErr  error
	queryErr  func(prompt string) error
	questions int
}

func (k *keywordIndex) Index(ctx context.Context, chunks []models.Chunk, collection string) error {
	if k.indexErr != nil {
		return k.indexErr
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.chunks[collection] = append(k.chunks[collection], chunks...)
	return nil
}

func (k *keywordIndex) Query(ctx context.Context, question, collection string) (string, error) {
	k.mu.Lock()
	k.questions++
	var text strings.Builder
	for _, c := range k.chunks[collection] {
		text.WriteString(c.Content)
	}
	k.mu.Unlock()

	if k.queryErr != nil {
		if err := k.queryErr(question); err != nil {
			return "", err
		}
	}

	var pattern *regexp.Regexp
	switch {
	case strings.Contains(question, "of the tenant"):
		pattern = tenantPattern
	case strings.Contains(question, "of the landlord"):
		pattern = landlordPattern
	default:
		return "Not specified", nil
	}

	m := pattern.FindStringSubmatch(text.String())
	if m == nil {
		return "", nil
	}
	if strings.Contains(question, "contact information") {
		return m[2], nil
	}
	return m[1], nil
}

type fakeFactory struct {
	index   *keywordIndex
	opened  int
	openErr error
}

func (f *fakeFactory) CheckCredentials(creds models.Credentials) error {
	if creds.OpenAIAPIKey == "" || creds.PineconeAPIKey == "" {
		return errs.E(errs.MissingCredentials, "fake", errs.ErrMissingCredentials)
	}
	return nil
}

func (f *fakeFactory) Open(ctx context.Context, creds models.Credentials) (types.Index, error) {
	f.opened++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.index, nil
}

type failingStore struct {
	types.LeaseStore
}

func (failingStore) Create(context.Context, *models.Lease) error {
	return errors.New("disk full")
}

var validCreds = models.Credentials{OpenAIAPIKey: "sk-test", PineconeAPIKey: "pc-test"}

type fixture struct {
	service *ingest.Service
	factory *fakeFactory
	store   *leasedb.SQLiteStore
}

func newFixture(t *testing.T, opts ...ingest.Option) *fixture {
	t.Helper()

	store, err := leasedb.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "leases.db"), "")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	factory := &fakeFactory{index: &keywordIndex{chunks: make(map[string][]models.Chunk)}}
	chunker := processor.New()

	base := []ingest.Option{
		ingest.WithExtractor(extractor.New()),
		ingest.WithChunker(&chunker),
		ingest.WithIndexFactory(factory),
		ingest.WithLeaseStore(store),
		ingest.WithClock(func() time.Time { return time.Date(2023, 3, 20, 10, 0, 0, 0, time.UTC) }),
		ingest.WithIDGenerator(func() string { return "lease-1" }),
	}
	return &fixture{
		service: ingest.NewService(append(base, opts...)...),
		factory: factory,
		store:   store,
	}
}

func (f *fixture) count(t *testing.T) int {
	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestIngest_TextLease(t *testing.T) {
	f := newFixture(t)

	var stages []string
	result, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename:    "lease.txt",
		MediaType:   "text/plain",
		Data:        []byte(sampleLease),
		Credentials: validCreds,
		OnProgress: func(e ingest.Event) {
			if len(stages) == 0 || stages[len(stages)-1] != e.Stage {
				stages = append(stages, e.Stage)
			}
		},
	})
	require.NoError(t, err)

	lease := result.Lease
	assert.Equal(t, "Jane Doe", lease.TenantName)
	assert.Equal(t, "555-1234", lease.TenantContactInfo)
	assert.Equal(t, "Acme Corp", lease.LandlordName)
	assert.Equal(t, "acme@example.com", lease.LandlordContactInfo)
	assert.Equal(t, "Not specified", lease.PropertyAddress)
	assert.Equal(t, "lease.txt", lease.SourceFilename)
	assert.Empty(t, result.Warnings)

	assert.Equal(t, []string{
		ingest.StageExtracting,
		ingest.StageChunking,
		ingest.StageIndexing,
		ingest.StageQuerying,
		ingest.StageSaving,
		ingest.StageDone,
	}, stages)

	stored, err := f.store.Get(context.Background(), "lease-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.TenantName)
	assert.Equal(t, models.QuestionSetVersion, stored.QuestionSetVersion)

	assert.Len(t, f.factory.index.chunks["lease-1"], 1)
	assert.Equal(t, len(models.Fields), f.factory.index.questions)
}

func TestIngest_PDFLease(t *testing.T) {
	f := newFixture(t)

	data, err := readTestPDF()
	require.NoError(t, err)

	result, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename:    "lease.pdf",
		MediaType:   "application/pdf",
		Data:        data,
		Credentials: validCreds,
	})
	require.NoError(t, err)
	assert.Equal(t, "lease.pdf", result.Lease.SourceFilename)

	var indexed strings.Builder
	for _, c := range f.factory.index.chunks["lease-1"] {
		indexed.WriteString(c.Content)
	}
	assert.Contains(t, indexed.String(), "Jane Doe")
	assert.Contains(t, indexed.String(), "Acme Corp")
}

func TestIngest_FailsBeforeExternalCalls(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		data      string
		creds     models.Credentials
		kind      errs.Kind
	}{
		{"unsupported format", "image/png", "\x89PNG", validCreds, errs.UnsupportedFormat},
		{"empty upload", "text/plain", "", validCreds, errs.InvalidInput},
		{"blank text", "text/plain", " \n ", validCreds, errs.ExtractionFailed},
		{"missing pinecone key", "text/plain", sampleLease, models.Credentials{OpenAIAPIKey: "sk"}, errs.MissingCredentials},
		{"missing openai key", "text/plain", sampleLease, models.Credentials{PineconeAPIKey: "pc"}, errs.MissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.service.Ingest(context.Background(), ingest.Request{
				Filename:    "upload",
				MediaType:   tt.mediaType,
				Data:        []byte(tt.data),
				Credentials: tt.creds,
			})
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.Zero(t, f.factory.opened)
			assert.Zero(t, f.count(t))
		})
	}
}

func TestIngest_AuthenticationFailure(t *testing.T) {
	f := newFixture(t)
	f.factory.index.queryErr = func(string) error {
		return errs.E(errs.AuthenticationFailed, "fake", errors.New("Incorrect API key provided"))
	}

	_, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename: "lease.txt", MediaType: "text/plain", Data: []byte(sampleLease), Credentials: validCreds,
	})
	require.Error(t, err)
	assert.Equal(t, errs.AuthenticationFailed, errs.KindOf(err))
	assert.Equal(t, 1, f.factory.index.questions)
	assert.Zero(t, f.count(t))
}

func TestIngest_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.factory.index.queryErr = func(q string) error {
		if strings.Contains(q, "contact information of the tenant") {
			return errors.New("status code: 503")
		}
		return nil
	}

	result, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename: "lease.txt", MediaType: "text/plain", Data: []byte(sampleLease), Credentials: validCreds,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Lease.TenantContactInfo)
	assert.Equal(t, "Jane Doe", result.Lease.TenantName)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "tenantContactInfo", result.Warnings[0].Field)
	assert.Equal(t, 1, f.count(t))
}

func TestIngest_IndexUnavailable(t *testing.T) {
	f := newFixture(t)
	f.factory.index.indexErr = errs.E(errs.IndexUnavailable, "fake", errors.New("connection refused"))

	_, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename: "lease.txt", MediaType: "text/plain", Data: []byte(sampleLease), Credentials: validCreds,
	})
	assert.Equal(t, errs.IndexUnavailable, errs.KindOf(err))
	assert.Zero(t, f.factory.index.questions)
	assert.Zero(t, f.count(t))
}

func TestIngest_OpenFailure(t *testing.T) {
	f := newFixture(t)
	f.factory.openErr = errors.New("dial tcp: i/o timeout")

	_, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename: "lease.txt", MediaType: "text/plain", Data: []byte(sampleLease), Credentials: validCreds,
	})
	assert.Equal(t, errs.IndexUnavailable, errs.KindOf(err))
}

func TestIngest_PersistenceFailure(t *testing.T) {
	f := newFixture(t, ingest.WithLeaseStore(failingStore{}))

	_, err := f.service.Ingest(context.Background(), ingest.Request{
		Filename: "lease.txt", MediaType: "text/plain", Data: []byte(sampleLease), Credentials: validCreds,
	})
	assert.Equal(t, errs.PersistenceFailed, errs.KindOf(err))
}

func TestIngest_DistinctCollections(t *testing.T) {
	f := newFixture(t)
	ids := []string{"first", "second"}
	n := 0
	svc := ingest.NewService(
		ingest.WithExtractor(extractor.New()),
		ingest.WithChunker(func() types.Chunker { p := processor.New(); return &p }()),
		ingest.WithIndexFactory(f.factory),
		ingest.WithLeaseStore(f.store),
		ingest.WithIDGenerator(func() string { id := ids[n]; n++; return id }),
	)

	other := "Tenant: John Roe, 555-9999.\n\nLandlord: Beta LLC, beta@example.com."
	for _, text := range []string{sampleLease, other} {
		_, err := svc.Ingest(context.Background(), ingest.Request{
			Filename: "lease.txt", MediaType: "text/plain", Data: []byte(text), Credentials: validCreds,
		})
		require.NoError(t, err)
	}

	first, err := f.store.Get(context.Background(), "first")
	require.NoError(t, err)
	second, err := f.store.Get(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", first.TenantName)
	assert.Equal(t, "John Roe", second.TenantName, "answers come only from the document's own collection")
	assert.Equal(t, 2, f.count(t))
}
