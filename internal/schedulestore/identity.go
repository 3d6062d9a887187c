package schedulestore

import (
	"strings"

	"github.com/google/uuid"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

var identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://dietfit.app/notifications"))

// IdentityOf derives the stable source id of a descriptor from its content.
// The same message, time and recurrence kind always map to the same id.
func IdentityOf(d *domain.NotificationDescriptor) string {
	key := strings.Join([]string{
		domain.NormalizeMessage(d.Message),
		d.TimeOfDay.String(),
		d.Recurrence.Discriminator(),
	}, "|")
	return uuid.NewSHA1(identityNamespace, []byte(key)).String()
}
