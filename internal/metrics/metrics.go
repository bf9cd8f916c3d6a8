// Package metrics tracks per-dictation-session word counts and the time a
// session saved over typing the same text, persisting daily rollups to disk
// so `voxtype stats` can report running totals.
package metrics

import (
	"strings"
	"time"
)

// SessionMetrics is one completed dictation: the text that came back from
// the transcriber (after any pipe post-processing), how long the hotkey was
// held, and which engine/model produced it.
type SessionMetrics struct {
	Timestamp     time.Time     `json:"timestamp"`
	WordCount     int           `json:"word_count"`
	RecordingTime time.Duration `json:"recording_time"`
	TimeSaved     time.Duration `json:"time_saved"`
	SpeakingRate  int           `json:"speaking_rate"` // words per minute
	Model         string        `json:"model,omitempty"`
}

// DailyMetrics aggregates every session recorded on one calendar day, plus a
// per-model word-count breakdown so a multi-engine config (whisper primary,
// a faster secondary model on the model-modifier key) shows which one
// actually did the work.
type DailyMetrics struct {
	Date         string           `json:"date"`
	Sessions     []SessionMetrics `json:"sessions"`
	TotalWords   int              `json:"total_words"`
	TotalSaved   time.Duration    `json:"total_saved"`
	SessionCount int              `json:"session_count"`
	WordsByModel map[string]int   `json:"words_by_model,omitempty"`
}

// UserSettings persists the one value metrics can't derive on its own: how
// fast the user actually types, used as the baseline for TimeSaved.
type UserSettings struct {
	TypingSpeed int `json:"typing_speed"` // user's own WPM, for TimeSaved
}

type MetricsManager struct {
	storage      *Storage
	userSettings *UserSettings
	calc         *ProductivityCalculator
}

func NewMetricsManager(storagePath string) (*MetricsManager, error) {
	storage, err := NewStorage(storagePath)
	if err != nil {
		return nil, err
	}

	userSettings, err := storage.LoadUserSettings()
	if err != nil {
		userSettings = &UserSettings{
			TypingSpeed: 40, // average typing speed, used until the user sets their own
		}
	}

	return &MetricsManager{
		storage:      storage,
		userSettings: userSettings,
		calc:         NewProductivityCalculator(),
	}, nil
}

// RecordSession records one completed dictation. model names the engine
// that produced transcript (e.g. "whisper", a configured secondary model, or
// "" when the active engine doesn't report one) and is folded into the
// day's per-model word tally.
func (mm *MetricsManager) RecordSession(transcript string, recordingTime time.Duration, model string) (*SessionMetrics, error) {
	wordCount := countWords(transcript)
	speakingRate := calculateSpeakingRate(wordCount, recordingTime)
	timeSaved := mm.calc.CalculateTimeSaved(wordCount, recordingTime, mm.userSettings.TypingSpeed)

	session := &SessionMetrics{
		Timestamp:     time.Now(),
		WordCount:     wordCount,
		RecordingTime: recordingTime,
		TimeSaved:     timeSaved,
		SpeakingRate:  speakingRate,
		Model:         model,
	}

	if err := mm.storage.SaveSession(session); err != nil {
		return session, err
	}

	return session, nil
}

func (mm *MetricsManager) GetTodayMetrics() (*DailyMetrics, error) {
	today := time.Now().Format("2006-01-02")
	return mm.storage.GetDailyMetrics(today)
}

func (mm *MetricsManager) GetTotalMetrics() (*TotalMetrics, error) {
	return mm.storage.GetTotalMetrics()
}

func (mm *MetricsManager) SetTypingSpeed(wpm int) error {
	mm.userSettings.TypingSpeed = wpm
	return mm.storage.SaveUserSettings(mm.userSettings)
}

func (mm *MetricsManager) GetTypingSpeed() int {
	return mm.userSettings.TypingSpeed
}

func (mm *MetricsManager) GetRecentDays(days int) ([]*DailyMetrics, error) {
	return mm.storage.GetRecentDays(days)
}

func (mm *MetricsManager) ClearAllMetrics() error {
	return mm.storage.ClearAllMetrics()
}

func countWords(text string) int {
	if text == "" {
		return 0
	}

	fields := strings.Fields(strings.TrimSpace(text))
	return len(fields)
}

func calculateSpeakingRate(wordCount int, duration time.Duration) int {
	if duration == 0 {
		return 0
	}

	minutes := duration.Minutes()
	if minutes == 0 {
		return 0
	}

	return int(float64(wordCount) / minutes)
}

type TotalMetrics struct {
	TotalWords         int           `json:"total_words"`
	TotalSessions      int           `json:"total_sessions"`
	TotalSaved         time.Duration `json:"total_saved"`
	AvgWordsPerSession int           `json:"avg_words_per_session"`
	AvgSavedPerSession time.Duration `json:"avg_saved_per_session"`
}
