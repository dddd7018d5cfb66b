// internal/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/manaclash/internal/catalog"
	"github.com/jason-s-yu/manaclash/internal/models"
	"github.com/sirupsen/logrus"
)

type catalogResponse struct {
	Cards         []models.CardDefinition `json:"cards"`
	Settings      models.GameSettings     `json:"settings"`
	RarityWeights []catalog.RarityWeight  `json:"rarityWeights"`
}

// ListCardsHandler serves the card catalog and its default settings.
func ListCardsHandler(logger *logrus.Logger, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, catalogResponse{
			Cards:         cat.Cards(),
			Settings:      cat.SettingsDefaults(),
			RarityWeights: cat.RarityWeights(),
		})
	}
}
