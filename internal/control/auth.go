package control

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Authentication methods advertised in PROTOCOLINFO.
const (
	MethodNull           = "NULL"
	MethodHashedPassword = "HASHEDPASSWORD"
	MethodCookie         = "COOKIE"
	MethodSafeCookie     = "SAFECOOKIE"
)

const (
	cookieLength = 32
	nonceLength  = 32

	serverHashKey = "Tor safe cookie authentication server-to-controller hash"
	clientHashKey = "Tor safe cookie authentication controller-to-server hash"
)

// ProtocolInfo is the parsed PROTOCOLINFO reply.
type ProtocolInfo struct {
	Methods    []string
	CookieFile string
	TorVersion string
}

// Supports reports whether the relay accepts method.
func (p *ProtocolInfo) Supports(method string) bool {
	for _, m := range p.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// ProtocolInfo asks the relay which authentication methods it accepts.
// It is one of the few commands allowed before authenticating.
func (c *Conn) ProtocolInfo(ctx context.Context) (*ProtocolInfo, error) {
	reply, err := c.Request(ctx, "PROTOCOLINFO 1")
	if err != nil {
		return nil, fmt.Errorf("protocolinfo: %w", err)
	}

	info := &ProtocolInfo{}
	for _, line := range reply.Lines {
		switch {
		case strings.HasPrefix(line.Text, "AUTH "):
			for key, value := range parseKeywords(strings.TrimPrefix(line.Text, "AUTH ")) {
				switch key {
				case "METHODS":
					info.Methods = strings.Split(value, ",")
				case "COOKIEFILE":
					info.CookieFile = value
				}
			}
		case strings.HasPrefix(line.Text, "VERSION "):
			info.TorVersion = parseKeywords(strings.TrimPrefix(line.Text, "VERSION "))["Tor"]
		}
	}
	return info, nil
}

// Authenticate completes the strongest method both sides can use: no
// auth, then a configured password, then safe cookie, then plain cookie.
func (c *Conn) Authenticate(ctx context.Context) error {
	info, err := c.ProtocolInfo(ctx)
	if err != nil {
		return err
	}

	cookieFile := info.CookieFile
	if c.opts.CookieFile != "" {
		cookieFile = c.opts.CookieFile
	}

	switch {
	case info.Supports(MethodNull):
		_, err = c.Request(ctx, "AUTHENTICATE")
	case c.opts.Password != "" && info.Supports(MethodHashedPassword):
		_, err = c.Request(ctx, "AUTHENTICATE "+quoteString(c.opts.Password))
	case info.Supports(MethodSafeCookie) && cookieFile != "":
		err = c.authenticateSafeCookie(ctx, cookieFile)
	case info.Supports(MethodCookie) && cookieFile != "":
		var cookie []byte
		cookie, err = readCookie(cookieFile)
		if err == nil {
			_, err = c.Request(ctx, "AUTHENTICATE "+hex.EncodeToString(cookie))
		}
	case info.Supports(MethodHashedPassword):
		return fmt.Errorf("authenticate: relay requires a control password and none is configured")
	default:
		return fmt.Errorf("authenticate: no supported method in %v", info.Methods)
	}
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}

func (c *Conn) authenticateSafeCookie(ctx context.Context, cookieFile string) error {
	cookie, err := readCookie(cookieFile)
	if err != nil {
		return err
	}

	clientNonce := make([]byte, nonceLength)
	if _, err := rand.Read(clientNonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	reply, err := c.Request(ctx, "AUTHCHALLENGE SAFECOOKIE "+hex.EncodeToString(clientNonce))
	if err != nil {
		return err
	}

	text := strings.TrimPrefix(reply.Lines[len(reply.Lines)-1].Text, "AUTHCHALLENGE ")
	fields := parseKeywords(text)
	serverHash, err := hex.DecodeString(fields["SERVERHASH"])
	if err != nil || len(serverHash) != sha256.Size {
		return fmt.Errorf("authchallenge: bad SERVERHASH")
	}
	serverNonce, err := hex.DecodeString(fields["SERVERNONCE"])
	if err != nil || len(serverNonce) != nonceLength {
		return fmt.Errorf("authchallenge: bad SERVERNONCE")
	}

	if !hmac.Equal(serverHash, safeCookieHash(serverHashKey, cookie, clientNonce, serverNonce)) {
		return fmt.Errorf("authchallenge: relay does not know the cookie; wrong cookie file?")
	}

	clientHash := safeCookieHash(clientHashKey, cookie, clientNonce, serverNonce)
	_, err = c.Request(ctx, "AUTHENTICATE "+hex.EncodeToString(clientHash))
	return err
}

func safeCookieHash(key string, cookie, clientNonce, serverNonce []byte) []byte {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(cookie)
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	return mac.Sum(nil)
}

func readCookie(path string) ([]byte, error) {
	cookie, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auth cookie: %w", err)
	}
	if len(cookie) != cookieLength {
		return nil, fmt.Errorf("auth cookie %s is %d bytes, expected %d", path, len(cookie), cookieLength)
	}
	return cookie, nil
}

// parseKeywords splits `KEY=value KEY2="quoted value"` into a map.
func parseKeywords(s string) map[string]string {
	out := make(map[string]string)
	for s = strings.TrimSpace(s); s != ""; s = strings.TrimSpace(s) {
		eq := strings.IndexByte(s, '=')
		sp := strings.IndexByte(s, ' ')
		if eq < 0 || (sp >= 0 && sp < eq) {
			// bare word, skip it
			if sp < 0 {
				break
			}
			s = s[sp+1:]
			continue
		}

		key := s[:eq]
		s = s[eq+1:]
		if strings.HasPrefix(s, `"`) {
			end := closingQuote(s)
			if end < 0 {
				out[key] = strings.Trim(s, `"`)
				break
			}
			quoted := s[:end+1]
			if v, err := strconv.Unquote(quoted); err == nil {
				out[key] = v
			} else {
				out[key] = quoted[1:end]
			}
			s = s[end+1:]
			continue
		}

		if sp = strings.IndexByte(s, ' '); sp >= 0 {
			out[key] = s[:sp]
			s = s[sp+1:]
		} else {
			out[key] = s
			s = ""
		}
	}
	return out
}

// closingQuote returns the index of the quote ending the string that starts
// at s[0], honoring backslash escapes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// quoteString encodes s as a control-protocol QuotedString.
func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
