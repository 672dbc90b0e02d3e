package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cradle-gate/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

const (
	roleMetadataKey  = "role"
	maxPatchAttempts = 3
)

// KratosRoleStore keeps the role in the identity's public metadata.
// Implements domain.RoleStore.
type KratosRoleStore struct {
	admin        *kratos.APIClient
	adminBaseURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewKratosRoleStore creates a role store on the Kratos admin API.
func NewKratosRoleStore(adminBaseURL string, timeout time.Duration, logger *slog.Logger) *KratosRoleStore {
	httpClient := newHTTPClient(timeout)
	adminBaseURL = strings.TrimRight(adminBaseURL, "/")
	return &KratosRoleStore{
		admin:        newAPIClient(adminBaseURL, httpClient),
		adminBaseURL: adminBaseURL,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// GetRole reads metadata_public.role. The legacy spelling is mapped and
// logged; an unrecognized value is logged and reported as no role.
func (s *KratosRoleStore) GetRole(ctx context.Context, identityID string) (domain.Role, error) {
	metadata, err := s.readMetadata(ctx, identityID)
	if err != nil {
		return domain.RoleNone, err
	}

	raw := storedRole(metadata)
	role, migrated, err := domain.ParseStoredRole(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "unrecognized stored role, treating as none",
			"user_id", identityID,
			"stored_role", raw)
		return domain.RoleNone, nil
	}
	if migrated {
		s.logger.WarnContext(ctx, "legacy role spelling in identity metadata",
			"user_id", identityID,
			"stored_role", raw,
			"role", role.String())
	}
	return role, nil
}

// SetRoleIfAbsent writes role with a JSON Patch whose test operation pins
// the metadata observed by the preceding read. Kratos rejects the whole
// patch when the metadata changed in between.
func (s *KratosRoleStore) SetRoleIfAbsent(ctx context.Context, identityID string, role domain.Role) error {
	if s.adminBaseURL == "" {
		return domain.ErrAdminNotConfigured
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	for attempt := 1; attempt <= maxPatchAttempts; attempt++ {
		metadata, err := s.readMetadata(ctx, identityID)
		if err != nil {
			return err
		}
		if storedRole(metadata) != "" {
			return domain.ErrRoleAlreadySet
		}

		applied, err := s.patch(ctx, identityID, rolePatch(metadata, role))
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		s.logger.DebugContext(ctx, "identity metadata changed during role write, retrying",
			"user_id", identityID,
			"attempt", attempt)
	}
	return fmt.Errorf("%w: role write kept conflicting", domain.ErrRoleStoreUnavailable)
}

func (s *KratosRoleStore) readMetadata(ctx context.Context, identityID string) (map[string]any, error) {
	if s.adminBaseURL == "" {
		return nil, domain.ErrAdminNotConfigured
	}

	identity, resp, err := s.admin.IdentityAPI.GetIdentity(ctx, identityID).Execute()
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, identityID)
			}
			return nil, fmt.Errorf("%w: admin API returned status %d", domain.ErrRoleStoreUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRoleStoreUnavailable, err)
	}

	if identity.MetadataPublic == nil {
		return nil, nil
	}
	metadata, ok := identity.MetadataPublic.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: metadata_public is %T", domain.ErrRoleStoreUnavailable, identity.MetadataPublic)
	}
	return metadata, nil
}

type jsonPatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// rolePatch pins the observed metadata (null when absent) and adds the role.
func rolePatch(observed map[string]any, role domain.Role) []jsonPatchOp {
	if observed == nil {
		return []jsonPatchOp{
			{Op: "test", Path: "/metadata_public", Value: nil},
			{Op: "add", Path: "/metadata_public", Value: map[string]string{roleMetadataKey: role.String()}},
		}
	}
	return []jsonPatchOp{
		{Op: "test", Path: "/metadata_public", Value: observed},
		{Op: "add", Path: "/metadata_public/" + roleMetadataKey, Value: role.String()},
	}
}

// patch sends ops to the admin API. It reports false when the test
// operation failed.
func (s *KratosRoleStore) patch(ctx context.Context, identityID string, ops []jsonPatchOp) (bool, error) {
	body, err := json.Marshal(ops)
	if err != nil {
		return false, fmt.Errorf("encode role patch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/identities/%s", s.adminBaseURL, url.PathEscape(identityID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrRoleStoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrRoleStoreUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusConflict:
		return false, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, identityID)
	default:
		return false, fmt.Errorf("%w: admin API returned status %d", domain.ErrRoleStoreUnavailable, resp.StatusCode)
	}
}

func storedRole(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	switch v := metadata[roleMetadataKey].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
