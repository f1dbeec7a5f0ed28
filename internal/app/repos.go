package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/data/repos/knowledge"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type Repos struct {
	Sources    knowledge.SourceRepo
	Thoughts   knowledge.ThoughtRepo
	ReviewLogs knowledge.ReviewLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Sources:    knowledge.NewSourceRepo(db, log),
		Thoughts:   knowledge.NewThoughtRepo(db, log),
		ReviewLogs: knowledge.NewReviewLogRepo(db, log),
	}
}
