package navigation

import (
	"strings"

	"github.com/mmeshcher/storefront/internal/model"
)

// ClassifyDevice определяет класс устройства по заголовку User-Agent.
// Неизвестные и пустые значения считаются настольным браузером.
func ClassifyDevice(userAgent string) model.DeviceType {
	ua := strings.ToLower(userAgent)

	switch {
	case ua == "":
		return model.DeviceDesktop
	case strings.Contains(ua, "ipad"),
		strings.Contains(ua, "tablet"),
		strings.Contains(ua, "kindle"),
		strings.Contains(ua, "silk/"),
		strings.Contains(ua, "playbook"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return model.DeviceTablet
	case strings.Contains(ua, "mobi"),
		strings.Contains(ua, "iphone"),
		strings.Contains(ua, "ipod"),
		strings.Contains(ua, "windows phone"),
		strings.Contains(ua, "blackberry"),
		strings.Contains(ua, "opera mini"):
		return model.DeviceMobile
	default:
		return model.DeviceDesktop
	}
}
