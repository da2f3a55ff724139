package types

import "image/color"

// Status colors shown on the status LED while talking to the network.
var (
	StatusNoConnection = color.RGBA{R: 100, A: 255}
	StatusConnecting   = color.RGBA{B: 100, A: 255}
	StatusFetching     = color.RGBA{R: 200, G: 100, A: 255}
	StatusDownloading  = color.RGBA{G: 100, B: 100, A: 255}
	StatusConnected    = color.RGBA{G: 100, A: 255}
	StatusDataReceived = color.RGBA{B: 100, A: 255}
	StatusHTTPError    = color.RGBA{R: 100, A: 255}
	StatusOff          = color.RGBA{A: 255}
)

// PlaceholderCredential is the value shipped in example secrets files.
const PlaceholderCredential = "CHANGE ME"

// Secrets holds network credentials and service keys
type Secrets struct {
	SSID        string `json:"ssid" yaml:"ssid"`
	Password    string `json:"password" yaml:"password"`
	AIOUsername string `json:"aio_username" yaml:"aio_username"`
	AIOKey      string `json:"aio_key" yaml:"aio_key"`
	Timezone    string `json:"timezone" yaml:"timezone"`
}
