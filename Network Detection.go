/*
File Name:  Network Detection.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

import (
	"net"
)

// NetworkListIPs returns a list of all IPs
func NetworkListIPs() (IPs []net.IP, err error) {
	interfaceList, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	// iterate through all interfaces
	for _, ifaceSingle := range interfaceList {
		if ifaceSingle.Flags&net.FlagUp == 0 {
			continue
		}

		addresses, err := ifaceSingle.Addrs()
		if err != nil {
			continue
		}

		// iterate through all IPs of the interfaces
		for _, address := range addresses {
			if ipnet, ok := address.(*net.IPNet); ok {
				IPs = append(IPs, ipnet.IP)
			}
		}
	}

	return IPs, nil
}

// listInterfaceIPs lists the IPs considered for the own address. Replaced in tests.
var listInterfaceIPs = NetworkListIPs

// announceIP selects the IP to announce when listening on an unspecified address.
// Only global unicast IPs of the listening family qualify. IPv6 candidates must be in 2001::/16, other IPv6 addresses cannot be transmitted in peer lists.
func announceIP(IPs []net.IP, ipv6 bool) net.IP {
	for _, ip := range IPs {
		if !ip.IsGlobalUnicast() {
			continue
		}

		if ipv4 := ip.To4(); ipv4 != nil {
			if !ipv6 {
				return ipv4
			}
		} else if ipv6 && ip[0] == 0x20 && ip[1] == 0x01 {
			return ip
		}
	}

	return nil
}
