package service

// pageCount 计算总页数。pageSize 非法时按单页处理，避免除零。
func pageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		if total > 0 {
			return 1
		}
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
