package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/user/illust-harvester/internal/entity"
)

// ErrInvalid marks a request that failed validation.
var ErrInvalid = errors.New("invalid request")

// PageNumber accepts a page number sent either as a JSON number or a string.
type PageNumber int

func (p *PageNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("page must be an integer, got %s", data)
	}
	*p = PageNumber(n)
	return nil
}

// JobFields are the fields shared by every job submission.
type JobFields struct {
	ImagePath      string     `json:"imagePath"`
	ExecutablePath string     `json:"executablePath"`
	Headless       string     `json:"headless"`
	Username       string     `json:"pixiv_username"`
	Password       string     `json:"pixiv_password"`
	UseProxy       string     `json:"useProxy"`
	Port           string     `json:"port"`
	Channel        string     `json:"channel"`
	PageStart      PageNumber `json:"pageStart"`
	PageEnd        PageNumber `json:"pageEnd"`
}

type SubmitRankingRequest struct {
	JobFields
	RankingType string `json:"rankingType"`
}

type SubmitSearchRequest struct {
	JobFields
	SearchUser string `json:"searchUser"`
}

// DeleteAuditRecordRequest removes one audit line and, optionally, its image.
type DeleteAuditRecordRequest struct {
	ImagePath  string         `json:"imagePath"`
	JSONObject map[string]any `json:"jsonObject"`
}

// truthy reads a boolean-like form string: "false" and "" are false,
// anything else is true.
func truthy(s string) bool {
	return s != "" && s != "false"
}

func isBoolString(s string) bool {
	_, err := strconv.ParseBool(s)
	return err == nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, name)
	}
	return nil
}

// Validate returns the first problem with the shared fields.
func (f JobFields) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"imagePath", f.ImagePath},
		{"executablePath", f.ExecutablePath},
		{"pixiv_username", f.Username},
		{"pixiv_password", f.Password},
		{"useProxy", f.UseProxy},
	} {
		if err := required(field.name, field.value); err != nil {
			return err
		}
	}
	if !isBoolString(f.Headless) {
		return fmt.Errorf("%w: headless must be a boolean string", ErrInvalid)
	}
	if truthy(f.UseProxy) {
		if err := required("port", f.Port); err != nil {
			return err
		}
		if n, err := strconv.Atoi(f.Port); err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalid)
		}
	}
	if f.PageStart < 1 || f.PageEnd < 1 {
		return fmt.Errorf("%w: pageStart and pageEnd must be positive", ErrInvalid)
	}
	return nil
}

// CheckPaths verifies that the destination and browser paths exist.
func (f JobFields) CheckPaths() error {
	if _, err := os.Stat(f.ImagePath); err != nil {
		return fmt.Errorf("%w: image path %s does not exist", entity.ErrPathPrecondition, f.ImagePath)
	}
	if _, err := os.Stat(f.ExecutablePath); err != nil {
		return fmt.Errorf("%w: browser path %s does not exist", entity.ErrPathPrecondition, f.ExecutablePath)
	}
	return nil
}

// Job builds the job descriptor. The headless form field asks whether the
// browser window should be shown, so it maps to the inverse of Headless.
func (f JobFields) Job(kind entity.JobKind, key, defaultChannel string) entity.Job {
	channel := f.Channel
	if channel == "" {
		channel = defaultChannel
	}
	return entity.Job{
		Kind:           kind,
		Key:            key,
		PageStart:      int(f.PageStart),
		PageEnd:        int(f.PageEnd),
		DestinationDir: f.ImagePath,
		UseProxy:       truthy(f.UseProxy),
		ProxyPort:      f.Port,
		ChannelID:      channel,
		Credentials:    entity.Credentials{Username: f.Username, Password: f.Password},
		Session:        entity.SessionOptions{ExecutablePath: f.ExecutablePath, Headless: !truthy(f.Headless)},
	}
}

func (r SubmitRankingRequest) Validate() error {
	if err := required("rankingType", r.RankingType); err != nil {
		return err
	}
	return r.JobFields.Validate()
}

func (r SubmitSearchRequest) Validate() error {
	if err := required("searchUser", r.SearchUser); err != nil {
		return err
	}
	return r.JobFields.Validate()
}

func (r DeleteAuditRecordRequest) Validate() error {
	if len(r.JSONObject) == 0 {
		return fmt.Errorf("%w: jsonObject is required", ErrInvalid)
	}
	return nil
}

// Decode reads a JSON body into v.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
