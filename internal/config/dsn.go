package config

import (
	"net"
	neturl "net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the MySQL DSN, either verbatim or assembled from parts.
func (c DatabaseConfig) DSNValue() string {
	if c.DSN != "" {
		return c.DSN
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Params = map[string]string{}
	for k, v := range c.Params {
		if k != "" && v != "" {
			mc.Params[k] = v
		}
	}
	if _, ok := mc.Params["charset"]; !ok && c.Charset != "" {
		mc.Params["charset"] = c.Charset
	}
	return mc.FormatDSN()
}

// URLValue returns the redis URL, either verbatim or assembled from parts.
func (c RedisConfig) URLValue() string {
	if c.URL != "" {
		return c.URL
	}
	u := &neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	if c.Password != "" {
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}
