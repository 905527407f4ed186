package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/story"
	"github.com/jackzampolin/bedtime/internal/svcctx"
)

type settingsGroup struct{}

func (settingsGroup) Group() (string, string) { return "settings", "Settings commands" }

// SettingsResponse contains settings entries keyed by name.
type SettingsResponse struct {
	Settings map[string]config.Entry `json:"settings"`
}

// Text renders key = value lines in key order.
func (s SettingsResponse) Text() string {
	var b strings.Builder
	for _, k := range config.SortedKeys(s.Settings) {
		fmt.Fprintf(&b, "%s = %v\n", k, s.Settings[k].Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SettingResponse contains a single settings entry.
type SettingResponse struct {
	Entry *config.Entry `json:"entry,omitempty"`
	Error string        `json:"error,omitempty"`
}

// UpdateSettingRequest is the request body for updating a setting.
type UpdateSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

// settingKey reads and validates the {key...} path value.
func settingKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return "", false
	}
	if err := config.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return key, true
}

// checkSettingValue rejects values that do not fit a known key. Unknown
// keys accept anything.
func checkSettingValue(ctx context.Context, key string, value any) error {
	def := config.GetDefault(key)
	if def == nil {
		return nil
	}
	switch def.Value.(type) {
	case string:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string", config.ErrInvalidValue, key)
		}
		switch key {
		case config.KeyDefaultTone:
			if _, ok := story.ParseTone(s); !ok {
				return fmt.Errorf("%w: unknown tone %q", story.ErrInvalidRequest, s)
			}
		case config.KeyDefaultLength:
			if _, ok := story.ParseLength(s); !ok {
				return fmt.Errorf("%w: unknown length %q", story.ErrInvalidRequest, s)
			}
		case config.KeyDefaultLanguage:
			if cat := svcctx.CatalogFrom(ctx); cat != nil {
				if _, _, ok := cat.Language(s); !ok {
					return fmt.Errorf("%w: language %q is not in the catalog", story.ErrInvalidRequest, s)
				}
			}
		}
	case bool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects true or false", config.ErrInvalidValue, key)
		}
	case int, float64:
		n, ok := value.(float64)
		if !ok || n < 0 || n != float64(int(n)) {
			return fmt.Errorf("%w: %s expects a non-negative whole number", config.ErrInvalidValue, key)
		}
	}
	return nil
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{ settingsGroup }

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List settings
//	@Description	Get all settings, optionally only those under a key prefix
//	@Tags			settings
//	@Produce		json
//	@Param			prefix	query		string	false	"Key prefix, e.g. generation."
//	@Success		200		{object}	SettingsResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/settings [get]
func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.ConfigStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "config store not available")
		return
	}

	entries, err := store.GetByPrefix(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Settings: entries})
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/settings"
			if prefix != "" {
				path += "?prefix=" + url.QueryEscape(prefix)
			}
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'generation.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key...}.
type GetSettingEndpoint struct{ settingsGroup }

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key...}", e.handler
}

func (e *GetSettingEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a setting
//	@Description	Get a single setting by key
//	@Tags			settings
//	@Produce		json
//	@Param			key	path		string	true	"Setting key (URL-encoded)"
//	@Success		200	{object}	SettingResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/settings/{key} [get]
func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(w, r)
	if !ok {
		return
	}

	store := svcctx.ConfigStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "config store not available")
		return
	}

	entry, err := store.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "setting not found")
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			if err := client.Get(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
}

// UpdateSettingEndpoint handles PUT /api/settings/{key...}.
type UpdateSettingEndpoint struct{ settingsGroup }

func (e *UpdateSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings/{key...}", e.handler
}

func (e *UpdateSettingEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a setting
//	@Description	Update a setting. Known keys must keep the type of their default.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string					true	"Setting key (URL-encoded)"
//	@Param			body	body		UpdateSettingRequest	true	"New value"
//	@Success		200		{object}	SettingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/settings/{key} [put]
func (e *UpdateSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := settingKey(w, r)
	if !ok {
		return
	}

	var req UpdateSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSettingValue(ctx, key, req.Value); err != nil {
		writeErr(w, err)
		return
	}

	store := svcctx.ConfigStoreFrom(ctx)
	if store == nil {
		writeError(w, http.StatusInternalServerError, "config store not available")
		return
	}

	description := req.Description
	if description == "" {
		if def := config.GetDefault(key); def != nil {
			description = def.Description
		}
	}
	if err := store.Set(ctx, key, req.Value, description); err != nil {
		writeErr(w, err)
		return
	}

	entry, err := store.Get(ctx, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	svcctx.LoggerFrom(ctx).Info("setting updated", "key", key, "value", entry.Value)
	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
}

func (e *UpdateSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	var value string
	var description string
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Update a setting",
		Args:  cobra.ExactArgs(1),
		Example: `  bedtime api settings set generation.default_language --value fr
  bedtime api settings set generation.calm_closure --value false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			// JSON first so numbers and booleans keep their type.
			var parsedValue any
			if err := json.Unmarshal([]byte(value), &parsedValue); err != nil {
				parsedValue = value
			}

			req := UpdateSettingRequest{Value: parsedValue, Description: description}
			var resp SettingResponse
			if err := client.Put(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "New value (JSON or string)")
	cmd.Flags().StringVar(&description, "description", "", "Description (optional)")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

// ResetSettingEndpoint handles POST /api/settings/reset/{key...}.
type ResetSettingEndpoint struct{ settingsGroup }

func (e *ResetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/settings/reset/{key...}", e.handler
}

func (e *ResetSettingEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Reset a setting to default
//	@Tags			settings
//	@Produce		json
//	@Param			key	path		string	true	"Setting key (URL-encoded)"
//	@Success		200	{object}	SettingResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/settings/reset/{key} [post]
func (e *ResetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(w, r)
	if !ok {
		return
	}

	store := svcctx.ConfigStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "config store not available")
		return
	}

	if err := config.ResetToDefault(r.Context(), store, key); err != nil {
		writeErr(w, err)
		return
	}

	entry, err := store.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
}

func (e *ResetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <key>",
		Short: "Reset a setting to its default value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			if err := client.Post(cmd.Context(), "/api/settings/reset/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
}
