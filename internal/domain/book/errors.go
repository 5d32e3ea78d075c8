package book

import (
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrBookDuplicate 违反唯一约束
	ErrBookDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "图书已存在")

	// ErrInvalidBook 标题或作者为空
	ErrInvalidBook = apperrors.New(apperrors.ErrCodeInvalidParams, "标题和作者不能为空")

	// ErrInvalidPublishedAt 出版日期格式不正确
	ErrInvalidPublishedAt = apperrors.New(apperrors.ErrCodeInvalidParams, "出版日期格式不正确")

	// ErrInvalidPattern 搜索表达式不是合法的正则(由存储引擎判定)
	ErrInvalidPattern = apperrors.New(apperrors.ErrCodeInvalidPattern, "搜索表达式非法")

	// ErrStoreUnavailable 数据库连接失败
	ErrStoreUnavailable = apperrors.ErrStoreUnavailable
)
