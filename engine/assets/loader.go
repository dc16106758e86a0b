package assets

import "github.com/spaghettifunk/citadel/engine/renderer/metadata"

type Loader interface {
	Load(path string) (*metadata.Asset, error)
	Unload(*metadata.Asset) error
}
