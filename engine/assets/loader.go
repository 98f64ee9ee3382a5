package assets

// Loader turns an asset path into a decoded value. params is loader
// specific and may be nil.
type Loader interface {
	Load(path string, params interface{}) (interface{}, error)
}
