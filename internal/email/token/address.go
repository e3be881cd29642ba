package token

import "strings"

// BuildAddress grafts a token onto the system address using plus addressing:
// system address "stream@example.com" and token "Zm9v" become
// "stream+Zm9v@example.com".
func BuildAddress(systemAddress, tok string) string {
	at := strings.LastIndexByte(systemAddress, '@')
	if at < 0 {
		return systemAddress
	}
	return systemAddress[:at] + "+" + tok + systemAddress[at:]
}

// ExtractToken pulls the token out of an address in the system's plus-address
// form. The local part before the plus and the domain must both match the
// system address; anything else is not ours.
func ExtractToken(address, systemAddress string) (string, bool) {
	sysAt := strings.LastIndexByte(systemAddress, '@')
	if sysAt < 0 {
		return "", false
	}
	sysLocal, sysDomain := systemAddress[:sysAt], systemAddress[sysAt+1:]

	at := strings.LastIndexByte(address, '@')
	if at < 0 {
		return "", false
	}
	local, domain := address[:at], address[at+1:]
	if !strings.EqualFold(domain, sysDomain) {
		return "", false
	}

	plus := strings.IndexByte(local, '+')
	if plus < 0 {
		return "", false
	}
	if !strings.EqualFold(local[:plus], sysLocal) {
		return "", false
	}
	tok := local[plus+1:]
	if tok == "" {
		return "", false
	}
	return tok, true
}
