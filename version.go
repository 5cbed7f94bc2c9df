package gossh

// Version adapts blitter.com/go/xs's consts.go Version string to this
// package's own release line; ClientConfig.ClientVersion (config.go)
// is the actual RFC 4253 §4.1 identification string sent on the wire,
// this is just the library's own version for callers that want to
// print it.
const Version = "1.0.0"
