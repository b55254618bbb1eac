// Package firestore stores tasks as documents in a Cloud Firestore
// collection using the Firestore REST API.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"golang.org/x/oauth2/google"
	fs "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

const (
	defaultDatabase   = "(default)"
	defaultCollection = "tasks"
	pageSize          = 300
)

// Config selects the project, database and collection and how to
// authenticate. With Endpoint set (an emulator) no credentials are sent.
type Config struct {
	ProjectID       string
	Database        string
	Collection      string
	APIKey          string
	CredentialsFile string
	Endpoint        string
	HTTPClient      *http.Client
}

// Store is a store.Store backed by a Firestore collection.
type Store struct {
	docs       *fs.ProjectsDatabasesDocumentsService
	parent     string
	collection string
}

// Open connects to Firestore. Credentials are resolved in this order:
// explicit HTTP client, emulator endpoint, API key, credentials file,
// application default credentials.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts, projectID, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, errors.New("firestore: project_id is required")
	}

	svc, err := fs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore service: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	return &Store{
		docs:       svc.Projects.Databases.Documents,
		parent:     fmt.Sprintf("projects/%s/databases/%s/documents", projectID, database),
		collection: collection,
	}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]option.ClientOption, string, error) {
	var opts []option.ClientOption
	projectID := cfg.ProjectID

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		creds, err := google.FindDefaultCredentials(ctx, fs.DatastoreScope)
		if err != nil {
			return nil, "", fmt.Errorf("finding default credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(creds.TokenSource))
		if projectID == "" {
			projectID = creds.ProjectID
		}
	}

	return opts, projectID, nil
}

// ListAll implements store.Store.
func (s *Store) ListAll(ctx context.Context) ([]task.Task, error) {
	tasks := []task.Task{}
	err := s.docs.List(s.parent, s.collection).
		PageSize(pageSize).
		Pages(ctx, func(resp *fs.ListDocumentsResponse) error {
			for _, doc := range resp.Documents {
				t, err := decodeDocument(doc)
				if err != nil {
					return err
				}
				tasks = append(tasks, t)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", mapError(err))
	}
	return tasks, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t task.Task) (string, error) {
	doc, err := encodeDocument(t, task.Full(t), true)
	if err != nil {
		return "", err
	}
	created, err := s.docs.CreateDocument(s.parent, s.collection, doc).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating document: %w", mapError(err))
	}
	return path.Base(created.Name), nil
}

// Update implements store.Store. Only the patched fields are written.
func (s *Store) Update(ctx context.Context, id string, p task.Patch) error {
	paths := p.FieldPaths()
	if len(paths) == 0 {
		return nil
	}
	doc, err := encodeDocument(task.Task{}, p, false)
	if err != nil {
		return err
	}
	_, err = s.docs.Patch(s.name(id), doc).
		UpdateMaskFieldPaths(paths...).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating document %s: %w", id, mapError(err))
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.docs.Delete(s.name(id)).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, mapError(err))
	}
	return nil
}

func (s *Store) name(id string) string {
	return s.parent + "/" + s.collection + "/" + id
}

// mapError translates missing-document responses to store.ErrNotFound.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", store.ErrNotFound, apiErr.Message)
	}
	return err
}
