package model

import "time"

// AppConfig holds runtime parameters set via CLI flags, env or config file.
type AppConfig struct {
	DBPath        string
	Addr          string
	Lang          string
	LLMURL        string
	LLMKey        string
	LLMModel      string
	LLMTimeout    time.Duration
	QuizQuestions int
	Difficulty    string
	Catalogs      []string // catalog JSON files imported at startup
	CORSOrigins   []string
}

// CatalogImport is the on-disk shape of a catalog seed file.
type CatalogImport struct {
	Courses []Course `json:"courses"`
}
