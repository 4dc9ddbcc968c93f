package anchor

// Namespace is a unique identifier for a session's id space. Sessions that
// share durable storage must use distinct namespaces unless they really do
// want to share one stable id space.
type Namespace string

func (n Namespace) String() string {
	return string(n)
}
