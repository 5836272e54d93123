package dsl

import (
	"context"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/reoring/confdoc"
	js "github.com/reoring/confdoc/jsonschema"
)

var (
	emailUserRE   = regexp.MustCompile("^[\\w!#$%&'*+\\-/=?^`{|}~.]+$")
	emailDomainRE = regexp.MustCompile(`(?i)^(?:[a-z0-9][a-z0-9\-]{0,62}\.)+[a-z]{2,}$`)
	hostLabelRE   = regexp.MustCompile(`(?i)^[a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?$`)
	tldRE         = regexp.MustCompile(`(?i)^([a-z]{2,63}|xn--[a-z0-9\-]{2,59})$`)
)

type emailValidator struct{}

// Email accepts addresses of the form user@domain.tld.
func Email() confdoc.Validator { return emailValidator{} }

func (emailValidator) Name() string { return "Email" }

func (emailValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	s, ok := in.AsString()
	if !ok {
		return confdoc.Value{}, invalidType("string", in)
	}
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "an email address must contain a single @")
	}
	user, domain := s[:at], s[at+1:]
	if !emailUserRE.MatchString(user) {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "the username portion of the email address is invalid (the portion before the @: %s)", user)
	}
	if !emailDomainRE.MatchString(domain) {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "the domain portion of the email address is invalid (the portion after the @: %s)", domain)
	}
	return in, nil
}

func (emailValidator) JSONSchemaHint(s *js.Schema) { s.Type, s.Format = "string", "email" }

// URLValidator accepts http and https URLs.
type URLValidator struct {
	requireTLD bool
	addHTTP    bool
}

// URL accepts http(s) URLs with a host, an optional port and path. By default
// the host must end in a top-level domain (or be an IP address) and a
// missing scheme is rejected.
func URL() *URLValidator { return &URLValidator{requireTLD: true} }

// AllowNoTLD accepts single-label hosts such as localhost.
func (v *URLValidator) AllowNoTLD() *URLValidator { v.requireTLD = false; return v }

// AddHTTP prefixes "http://" when the scheme is missing.
func (v *URLValidator) AddHTTP() *URLValidator { v.addHTTP = true; return v }

func (v *URLValidator) Name() string { return "URL" }

func (v *URLValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	s, ok := in.AsString()
	if !ok {
		return confdoc.Value{}, invalidType("string", in)
	}
	if v.addHTTP && !strings.Contains(s, "://") {
		s = "http://" + s
	}
	bad := func(msg string) (confdoc.Value, error) {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "that is not a valid URL: %s", msg)
	}
	if strings.ContainsAny(s, " \t\n") {
		return bad("contains whitespace")
	}
	u, err := url.Parse(s)
	if err != nil {
		return bad(err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return bad("you must start your URL with http://, https://, etc")
	}
	host := u.Hostname()
	if host == "" {
		return bad("missing host")
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return bad("invalid port " + p)
		}
	}
	if _, err := netip.ParseAddr(host); err != nil {
		labels := strings.Split(host, ".")
		for _, l := range labels {
			if !hostLabelRE.MatchString(l) {
				return bad("invalid host " + host)
			}
		}
		if v.requireTLD && (len(labels) < 2 || !tldRE.MatchString(labels[len(labels)-1])) {
			return bad("you must provide a full domain name (like " + host + ".com)")
		}
	}
	return confdoc.String(s), nil
}

func (v *URLValidator) JSONSchemaHint(s *js.Schema) { s.Type, s.Format = "string", "uri" }

// IPValidator accepts IP addresses.
type IPValidator struct {
	v4, v6 bool
}

// IPAddress accepts IPv4 and IPv6 addresses. IPv4 octets must be in range
// and must not carry leading zeros.
func IPAddress() *IPValidator { return &IPValidator{v4: true, v6: true} }

// V4Only rejects IPv6 addresses.
func (v *IPValidator) V4Only() *IPValidator { v.v4, v.v6 = true, false; return v }

// V6Only rejects IPv4 addresses.
func (v *IPValidator) V6Only() *IPValidator { v.v4, v.v6 = false, true; return v }

func (v *IPValidator) Name() string { return "IPAddress" }

func (v *IPValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	s, ok := in.AsString()
	if !ok {
		return confdoc.Value{}, invalidType("string", in)
	}
	addr, err := v.parse(s)
	if err != nil {
		return confdoc.Value{}, err
	}
	return confdoc.String(addr.String()), nil
}

func (v *IPValidator) parse(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, &confdoc.Failure{Code: confdoc.CodeInvalidFormat, Message: "please enter a valid IP address (a.b.c.d)", Cause: err}
	}
	if addr.Is4() && !v.v4 {
		return netip.Addr{}, confdoc.Failf(confdoc.CodeInvalidFormat, "IPv4 addresses are not allowed")
	}
	if !addr.Is4() && !v.v6 {
		return netip.Addr{}, confdoc.Failf(confdoc.CodeInvalidFormat, "IPv6 addresses are not allowed")
	}
	return addr, nil
}

func (v *IPValidator) JSONSchemaHint(s *js.Schema) {
	s.Type = "string"
	switch {
	case v.v4 && !v.v6:
		s.Format = "ipv4"
	case v.v6 && !v.v4:
		s.Format = "ipv6"
	}
}

// CIDRValidator accepts an address with an optional prefix length.
type CIDRValidator struct {
	ip        *IPValidator
	minPrefix int
}

// CIDR accepts "a.b.c.d" or "a.b.c.d/n". The prefix length must be at least
// 8 (configurable with MinPrefix) and at most the address width.
func CIDR() *CIDRValidator { return &CIDRValidator{ip: IPAddress(), minPrefix: 8} }

// MinPrefix sets the smallest accepted prefix length.
func (v *CIDRValidator) MinPrefix(n int) *CIDRValidator { v.minPrefix = n; return v }

// V4Only rejects IPv6 networks.
func (v *CIDRValidator) V4Only() *CIDRValidator { v.ip.V4Only(); return v }

func (v *CIDRValidator) Name() string { return "CIDR" }

func (v *CIDRValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	s, ok := in.AsString()
	if !ok {
		return confdoc.Value{}, invalidType("string", in)
	}
	addrText, bitsText, hasBits := strings.Cut(s, "/")
	addr, err := v.ip.parse(addrText)
	if err != nil {
		return confdoc.Value{}, err
	}
	if !hasBits {
		return confdoc.String(addr.String()), nil
	}
	bits, err := strconv.Atoi(bitsText)
	if err != nil {
		return confdoc.Value{}, &confdoc.Failure{Code: confdoc.CodeInvalidFormat, Message: "the network size (bits) must be an integer", Cause: err}
	}
	if bits < v.minPrefix || bits > addr.BitLen() {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "the network size (bits) must be within the range of %d-%d (not %d)", v.minPrefix, addr.BitLen(), bits).
			With("min", v.minPrefix).With("max", addr.BitLen()).With("got", bits)
	}
	return confdoc.String(netip.PrefixFrom(addr, bits).String()), nil
}

func (v *CIDRValidator) JSONSchemaHint(s *js.Schema) { s.Type = "string" }

// MACValidator normalizes hardware addresses.
type MACValidator struct {
	addColons bool
}

// MACAddress accepts 12 hex digits, optionally separated by ':' or '-', and
// returns them lowercased without separators.
func MACAddress() *MACValidator { return &MACValidator{} }

// AddColons formats the result as aa:bb:cc:dd:ee:ff.
func (v *MACValidator) AddColons() *MACValidator { v.addColons = true; return v }

func (v *MACValidator) Name() string { return "MACAddress" }

func (v *MACValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	s, ok := in.AsString()
	if !ok {
		return confdoc.Value{}, invalidType("string", in)
	}
	addr := strings.ToLower(strings.NewReplacer(":", "", "-", "").Replace(s))
	if len(addr) != 12 {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "a MAC address must contain 12 digits and A-F; the value you gave has %d characters", len(addr))
	}
	for _, c := range addr {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "MAC addresses may only contain 0-9 and A-F (and optionally :), not %q", c)
		}
	}
	if v.addColons {
		parts := make([]string, 0, 6)
		for i := 0; i < 12; i += 2 {
			parts = append(parts, addr[i:i+2])
		}
		addr = strings.Join(parts, ":")
	}
	return confdoc.String(addr), nil
}

func (v *MACValidator) JSONSchemaHint(s *js.Schema) { s.Type = "string" }
