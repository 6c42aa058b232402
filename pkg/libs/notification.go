package libs

import (
	"log"

	"github.com/oarkflow/pinauth/pkg/models"
)

// NotificationHandler delivers recovery tokens out of band. The
// default just prints the token, which is enough for development;
// deployments plug in mail or SMS delivery through the plugin option.
type NotificationHandler struct{}

func (NotificationHandler) SendRecoveryToken(username string, grant models.RecoveryGrant) error {
	log.Printf("PIN recovery token for %s (expires %s): %s", username, grant.ExpiresAt.Format("15:04:05"), grant.Token)
	return nil
}
