package bytesconv

// ToLowerTable 是 ASCII 大写字母到小写字母的映射表，其余字节原样返回。
var ToLowerTable = func() [256]byte {
	var t [256]byte
	for i := 0; i < 256; i++ {
		c := byte(i)
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		t[i] = c
	}
	return t
}()
