package models

import "time"

// Keys of the sync scope.
const (
	KeyTheme           = "theme"
	KeyUserName        = "userName"
	KeySearchEngine    = "searchEngine"
	KeyLocation        = "location"
	KeyTemperatureUnit = "temperatureUnit"
)

// Keys of the local scope.
const (
	KeyNotes          = "notes"
	KeyBackgroundURL  = "unsplashBgUrl"
	KeyBackgroundTime = "unsplashBgFetchedAt"
)

// SettingsKeys lists every key Settings is stored under.
var SettingsKeys = []string{KeyTheme, KeyUserName, KeySearchEngine, KeyLocation, KeyTemperatureUnit}

type Settings struct {
	Theme           string `json:"theme"`
	UserName        string `json:"userName"`
	SearchEngine    string `json:"searchEngine"`
	Location        string `json:"location"`
	TemperatureUnit string `json:"temperatureUnit"`
}

// BackgroundCache is the last background image fetched through the image relay.
type BackgroundCache struct {
	URL       string
	FetchedAt time.Time
}
