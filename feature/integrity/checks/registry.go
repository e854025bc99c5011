package checks

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"module-loader/core/registry"
	"module-loader/core/storage"

	"github.com/minio/minio-go/v7"
)

// RegistryReport compares the registry against the module bucket.
type RegistryReport struct {
	Bucket       string   `json:"bucket"`
	Expected     int      `json:"expected"`
	Found        int      `json:"found"`
	Missing      []string `json:"missing"`
	Unregistered []string `json:"unregistered"`
	Errors       []string `json:"errors"`
}

// CheckRegistry verifies that every registry entry has a source object and
// lists module objects the registry does not know about.
func CheckRegistry(ctx context.Context, client storage.Client, bucket, prefix string, reg *registry.Registry) (*RegistryReport, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	report := &RegistryReport{
		Bucket:       bucket,
		Missing:      []string{},
		Unregistered: []string{},
		Errors:       []string{},
	}

	expected := make(map[string]bool)
	for _, entry := range reg.Entries() {
		canonical := reg.CanonicalPath(entry)
		object := storage.ObjectName(prefix, canonical)
		expected[object] = true
		report.Expected++

		_, err := client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
		switch {
		case err == nil:
			report.Found++
		case storage.IsNotFound(err):
			report.Missing = append(report.Missing, canonical)
		default:
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", object, err))
		}
	}

	listPrefix := storage.ObjectName(prefix, reg.Root())
	if listPrefix != "" && !strings.HasSuffix(listPrefix, "/") {
		listPrefix += "/"
	}
	opts := minio.ListObjectsOptions{Prefix: listPrefix, Recursive: true}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("list %s: %v", listPrefix, obj.Err))
			break
		}
		if expected[obj.Key] || path.Ext(obj.Key) != reg.Extension() {
			continue
		}
		report.Unregistered = append(report.Unregistered, obj.Key)
	}

	sort.Strings(report.Missing)
	sort.Strings(report.Unregistered)
	return report, nil
}
